package redis

import (
	goredis "github.com/redis/go-redis/v9"
)

// NewClient returns a cluster client when cluster is set and more than one
// address is given, otherwise a single-node client on the first address.
func NewClient(addrs []string, password string, cluster bool) goredis.UniversalClient {
	if cluster && len(addrs) > 1 {
		return goredis.NewClusterClient(&goredis.ClusterOptions{
			Addrs:    addrs,
			Password: password,
		})
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     addrs[0],
		Password: password,
		DB:       0,
	})
}
