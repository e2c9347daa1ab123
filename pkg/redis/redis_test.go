package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "routinetest:token:blacklist:abc", BlacklistKey("abc"))
	assert.Equal(t, "routinetest:cache:curriculum:tree", CacheKey("curriculum:tree"))
}
