package types_test

import (
	"fmt"
	"testing"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAction(t *testing.T) {
	action, err := types.NewAction(types.ActionInstall, "vim", types.SourceApt, "in manifest")
	require.NoError(t, err)

	assert.Equal(t, types.ActionInstall, action.Kind)
	assert.Equal(t, "vim", action.Package)
	assert.Equal(t, types.SourceApt, action.Source)
	assert.Equal(t, "in manifest", action.Reason)
}

func TestNewActionEmptyPackage(t *testing.T) {
	_, err := types.NewAction(types.ActionRemove, "", types.SourceApt, "")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrActionInvalid))
}

func TestNewActionUnknownSource(t *testing.T) {
	_, err := types.NewAction(types.ActionInstall, "vim", types.Source("brew"), "")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnknownSource))
}

func TestActionResults(t *testing.T) {
	action, err := types.NewAction(types.ActionInstall, "htop", types.SourceApt, "")
	require.NoError(t, err)

	ok := types.SuccessResult(action, "installed")
	assert.True(t, ok.Success)
	assert.Equal(t, "installed", ok.Message)
	assert.NoError(t, ok.Error)

	fail := types.FailureResult(action, fmt.Errorf("apt-get exited 100"))
	assert.False(t, fail.Success)
	assert.EqualError(t, fail.Error, "apt-get exited 100")
}
