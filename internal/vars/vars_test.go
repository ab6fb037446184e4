package vars

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "Nadir/dev (+https://github.com/woozymasta/nadir)", UserAgent())
}

func TestCommitShort(t *testing.T) {
	old := Commit
	defer func() { Commit = old }()

	Commit = "da15c174cd2ada1ad247906536c101e8f6799def"
	assert.Equal(t, "da15c17", CommitShort())
	assert.Equal(t, "da15c17", Info().CommitShort)

	Commit = "abc"
	assert.Equal(t, "abc", CommitShort())
}
