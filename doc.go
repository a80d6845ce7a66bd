// Package filecache provides an on-disk cache of files keyed by opaque
// strings, bounded by a byte capacity.
//
// Cached values are plain files inside a cache directory. A keymap.Mapper
// decides which file holds each key. When the cache is bounded, a
// monitor.Monitor tracks every cache file by its last access time and a
// background goroutine deletes the least recently accessed files whenever
// the total size exceeds the capacity.
//
// # Basic usage
//
//	mapper, err := keymap.NewLocal("/var/cache/thumbs")
//	if err != nil {
//	    // The directory could not be created; run without a cache.
//	}
//	cache, err := filecache.New(512<<20, mapper)
//	if err != nil {
//	    return err
//	}
//	defer cache.Close()
//
//	path, err := cache.GetOrCompute(ctx, "photo-123-thumb", func(w io.Writer) error {
//	    return renderThumbnail(w)
//	})
//
// # Writing
//
// Values are written through a Writer returned by Create. Data goes to a
// temporary file that is renamed into place on Close, so readers never see
// partial content. Put and GetOrCompute are built on Create.
//
// # Capacity
//
// A capacity of zero creates an unbounded cache: no monitor runs and the size
// counter is not maintained. SetCapacity has no effect on unbounded caches.
//
// # Format version
//
// The cache directory holds a small version file. When it is missing or
// names a different FormatVersion, every cache file is deleted before the
// cache is used.
package filecache
