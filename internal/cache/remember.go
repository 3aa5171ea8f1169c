package cache

import "time"

// LoadFunc computes a value for a key that is missing or expired.
type LoadFunc func() ([]byte, error)

// Remember returns the live value for key, or calls load, stores its result for ttl and
// returns it.
//
// Concurrent misses on the same key share one load call. A load error is returned as is
// and nothing is stored. If the loaded value cannot be stored (closed cache, size limit)
// it is still returned; the next call loads again.
func (c *Cache) Remember(key string, ttl time.Duration, load LoadFunc) ([]byte, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.loads.Do(key, func() (any, error) {
		// Another caller may have stored it between our Get and entering the group.
		if v, ok := c.Get(key); ok {
			return v, nil
		}

		v, err := load()
		if err != nil {
			return nil, err
		}
		if err := c.Set(key, v, ttl); err != nil {
			c.log.Warn().Err(err).Int("key_len", len(key)).Msg("loaded value not stored")
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}

	// Callers sharing a load must not share the slice.
	return cloneBytes(v.([]byte)), nil
}
