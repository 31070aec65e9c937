// Package paperless uploads scanned documents to a Paperless-ngx instance.
//
// Uploads are multipart POSTs to the post_document endpoint authenticated
// with a Paperless API token. The local file is removed only after Paperless
// answers 200; every other outcome leaves it on disk for a manual retry.
package paperless
