package rediskey

import "fmt"

const (
	RepoCachePrefix = "repocache"
	SequencePrefix  = "seq"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildRepoCacheKey returns "repocache:{owner}"
func BuildRepoCacheKey(owner string) string {
	return NamespaceKey(RepoCachePrefix, owner)
}

// BuildDailySequenceKey returns "seq:{prefix}:{day}"
func BuildDailySequenceKey(prefix, day string) string {
	return NamespaceKey(SequencePrefix, fmt.Sprintf("%s:%s", prefix, day))
}
