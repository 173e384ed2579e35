package cache

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/theHamdiz/kishmat/config"
)

func TestLoadOnce(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	calls := 0
	f := func(cfg *config.Config, key string) (any, error) {
		calls++
		return key + "-value", nil
	}
	v, err := Load(cfg, "test:once", f)
	is.NoErr(err)
	is.Equal(v, "test:once-value")
	v, err = Load(cfg, "test:once", f)
	is.NoErr(err)
	is.Equal(v, "test:once-value")
	is.Equal(calls, 1)

	Evict("test:once")
	_, err = Load(cfg, "test:once", f)
	is.NoErr(err)
	is.Equal(calls, 2)
}

func TestFailuresAreNotCached(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	boom := errors.New("boom")
	fail := true
	f := func(cfg *config.Config, key string) (any, error) {
		if fail {
			return nil, boom
		}
		return 3, nil
	}
	_, err := Load(cfg, "test:flaky", f)
	is.True(errors.Is(err, boom))
	fail = false
	v, err := Load(cfg, "test:flaky", f)
	is.NoErr(err)
	is.Equal(v, 3)
}
