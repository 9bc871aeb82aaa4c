package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandTable(t *testing.T) {
	table, err := ParseCommandTable("0:G, 1:P ,2:T")
	require.NoError(t, err)
	assert.Equal(t, DefaultCommandTable(), table)
	assert.NoError(t, table.Check())
	assert.Equal(t, "0:G,1:P,2:T", table.String())

	for _, bad := range []string{"0G", "x:G", "0:G,0:P"} {
		_, err := ParseCommandTable(bad)
		assert.Error(t, err, bad)
	}
}

func TestCommandTable_Check(t *testing.T) {
	tests := map[string]CommandTable{
		"missing label":   {LabelGrip: CommandGrip, LabelPinch: CommandPinch},
		"unknown command": {LabelGrip: CommandGrip, LabelPinch: "Q", LabelTripod: CommandTripod},
		"extra label":     {LabelGrip: CommandGrip, LabelPinch: CommandPinch, LabelTripod: CommandTripod, 3: CommandGrip},
	}
	for name, table := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, table.Check())
		})
	}
}

func TestActionLabel(t *testing.T) {
	assert.True(t, LabelTripod.Valid())
	assert.False(t, ActionLabel(3).Valid())
	assert.Equal(t, "pinch", LabelPinch.String())
	assert.Equal(t, "label(9)", ActionLabel(9).String())
}

func TestErrors(t *testing.T) {
	inner := errors.New("bad value")
	cfgErr := &ConfigurationError{Field: "WINDOW_SIZE", Reason: "not a number", Err: inner}
	assert.ErrorIs(t, cfgErr, inner)
	assert.Equal(t, "configuration error: WINDOW_SIZE: not a number: bad value", cfgErr.Error())

	decErr := &DecodeError{Topic: "emg/data", Reason: "missing emg_data"}
	assert.Equal(t, "decode error on emg/data: missing emg_data", decErr.Error())
	assert.Nil(t, decErr.Unwrap())
}
