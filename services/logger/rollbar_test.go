package logsvc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/user"
)

func TestRollbarLogger_prepare(t *testing.T) {
	l := NewRollbarLogger(zap.NewNop(), &core.Config{Env: "TEST"})
	l.Enable(false)

	err := errors.New("boom")
	usr := user.User{ID: 3, Username: "ana", Email: "ana@janis.pe"}
	rbArgs, fields := l.prepare("failed", []interface{}{err, usr, map[string]interface{}{"id": 7}, usr})

	assert.Equal(t, []interface{}{"failed", err, map[string]interface{}{"id": 7}}, rbArgs)
	assert.Equal(t, []interface{}{"error", err, "user", "ana", "id", 7}, fields)
}

func TestRollbarLogger_levels(t *testing.T) {
	l := NewRollbarLogger(zap.NewNop(), &core.Config{Env: "TEST"})
	l.Enable(false)
	assert.NotPanics(t, func() {
		l.Debug("debug")
		l.Info("info", map[string]interface{}{"k": "v"})
		l.Warn("warn")
		l.Error("error", errors.New("boom"))
	})
}
