package dispatch

import (
	"fmt"
	"log"

	"github.com/ArafathMohammed/Prosthetichand/internal/models"
)

// Sink delivers one command to the hand controller
type Sink interface {
	PublishCommand(cmd models.Command) error
}

// Dispatcher maps classifier labels to commands and publishes them
type Dispatcher struct {
	table    models.CommandTable
	fallback models.Command
	sink     Sink
}

// New validates table and fallback and returns a dispatcher publishing to sink
func New(table models.CommandTable, fallback models.Command, sink Sink) (*Dispatcher, error) {
	if sink == nil {
		return nil, models.NewConfigurationError("dispatch", "no command sink")
	}
	if err := table.Check(); err != nil {
		return nil, &models.ConfigurationError{Field: "COMMAND_MAP", Reason: "invalid table", Err: err}
	}
	if !fallback.Valid() {
		return nil, models.NewConfigurationError("DEFAULT_COMMAND", "unknown command %q", fallback)
	}

	t := make(models.CommandTable, len(table))
	for k, v := range table {
		t[k] = v
	}
	return &Dispatcher{table: t, fallback: fallback, sink: sink}, nil
}

// Resolve returns the command for label, or the fallback for labels the
// table does not know
func (d *Dispatcher) Resolve(label models.ActionLabel) models.Command {
	if cmd, ok := d.table[label]; ok {
		return cmd
	}
	log.Printf("Dispatch: unmapped label %d, using fallback %s", int(label), d.fallback)
	return d.fallback
}

// Dispatch publishes exactly one command for label and returns it
func (d *Dispatcher) Dispatch(label models.ActionLabel) (models.Command, error) {
	cmd := d.Resolve(label)
	if err := d.sink.PublishCommand(cmd); err != nil {
		return cmd, fmt.Errorf("failed to publish command %s: %w", cmd, err)
	}
	return cmd, nil
}
