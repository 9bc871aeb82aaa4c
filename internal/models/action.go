package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ActionLabel is the classifier's decision. The set is closed.
type ActionLabel int

const (
	LabelGrip ActionLabel = iota
	LabelPinch
	LabelTripod
)

// AllLabels lists every member of the enumeration in order
func AllLabels() []ActionLabel {
	return []ActionLabel{LabelGrip, LabelPinch, LabelTripod}
}

// Valid reports whether l belongs to the enumeration
func (l ActionLabel) Valid() bool {
	return l >= LabelGrip && l <= LabelTripod
}

func (l ActionLabel) String() string {
	switch l {
	case LabelGrip:
		return "grip"
	case LabelPinch:
		return "pinch"
	case LabelTripod:
		return "tripod"
	}
	return "label(" + strconv.Itoa(int(l)) + ")"
}

// Command is one actuator symbol sent to the hand controller
type Command string

const (
	CommandGrip   Command = "G"
	CommandPinch  Command = "P"
	CommandTripod Command = "T"
)

// Valid reports whether c is part of the command alphabet
func (c Command) Valid() bool {
	switch c {
	case CommandGrip, CommandPinch, CommandTripod:
		return true
	}
	return false
}

// CommandTable maps action labels to commands
type CommandTable map[ActionLabel]Command

// DefaultCommandTable returns {0→G, 1→P, 2→T}
func DefaultCommandTable() CommandTable {
	return CommandTable{
		LabelGrip:   CommandGrip,
		LabelPinch:  CommandPinch,
		LabelTripod: CommandTripod,
	}
}

// ParseCommandTable parses "0:G,1:P,2:T"
func ParseCommandTable(s string) (CommandTable, error) {
	table := make(CommandTable)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid command map entry %q", entry)
		}
		n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid label in command map entry %q: %w", entry, err)
		}
		label := ActionLabel(n)
		if _, dup := table[label]; dup {
			return nil, fmt.Errorf("duplicate label %d in command map", n)
		}
		table[label] = Command(strings.TrimSpace(parts[1]))
	}
	return table, nil
}

// Check verifies the table covers every label with a valid command and
// names nothing outside the enumeration.
func (t CommandTable) Check() error {
	for _, label := range AllLabels() {
		cmd, ok := t[label]
		if !ok {
			return fmt.Errorf("command table has no entry for label %d (%s)", int(label), label)
		}
		if !cmd.Valid() {
			return fmt.Errorf("command table maps label %d to unknown command %q", int(label), cmd)
		}
	}
	if len(t) != len(AllLabels()) {
		extra := make([]int, 0)
		for label := range t {
			if !label.Valid() {
				extra = append(extra, int(label))
			}
		}
		sort.Ints(extra)
		return fmt.Errorf("command table names labels outside the enumeration: %v", extra)
	}
	return nil
}

func (t CommandTable) String() string {
	parts := make([]string, 0, len(t))
	for _, label := range AllLabels() {
		if cmd, ok := t[label]; ok {
			parts = append(parts, fmt.Sprintf("%d:%s", int(label), cmd))
		}
	}
	return strings.Join(parts, ",")
}
