// Package command implements the memocache CLI: listing, inspecting and
// purging cache directories, and computing the key a call would use.
//
// Directory arguments are either paths or function directory names resolved
// under the cache root, so both of these work:
//
//	memocache list /tmp/t1
//	memocache --root /srv/cache list github.com.acme.geo.Square
//
// The root comes from --root, then the "root" key of --config (or
// $MEMOCACHE_CONFIG), then $CACHE_DIR, then the system temp directory.
package command
