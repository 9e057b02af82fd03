// Package shop holds the shop record type and the indexed, durable
// registry of trading posts.
//
// The Registry owns four maps kept consistent as one logical unit: the
// primary sign-position index, the container-position index, and the
// item-type and owner buckets. Mutations mark the registry dirty; the
// Autosaver flushes dirty state to disk off the hot path and a final
// synchronous save runs at shutdown.
package shop
