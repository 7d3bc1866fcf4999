// SPDX-License-Identifier: MIT
/*
Package midi filters raw note messages down to the categorized events the
consumer understands. Notes outside the configured map are dropped at
this boundary, as are note-offs and zero-velocity hits.
*/
package midi

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"grfnn/internal/config"
	"grfnn/internal/consumer"
	applog "grfnn/internal/log"
)

// TypeNoteOn is the only message type the processor forwards.
const TypeNoteOn = "note_on"

// Message is one raw note message from a source.
type Message struct {
	Type     string
	Note     int
	Velocity int
	Time     time.Time
}

// EventSink receives categorized events. Implemented by the consumer.
type EventSink interface {
	Receive(ev consumer.Event)
}

// Processor maps raw notes onto event categories via the configured
// note assignments and forwards matches to a sink.
type Processor struct {
	sink           EventSink
	toneNotes      map[int]struct{}
	gestureNote    int
	modeChangeNote int
}

// NewProcessor builds a Processor from the input note map.
func NewProcessor(in config.InputConfig, sink EventSink) *Processor {
	tones := make(map[int]struct{}, len(in.ToneNotes))
	for _, n := range in.ToneNotes {
		tones[n] = struct{}{}
	}
	return &Processor{
		sink:           sink,
		toneNotes:      tones,
		gestureNote:    in.GestureNote,
		modeChangeNote: in.ModeChangeNote,
	}
}

// Handle categorizes one message and forwards it. It reports whether the
// message passed the filter.
func (p *Processor) Handle(msg Message) bool {
	if msg.Type != TypeNoteOn || msg.Velocity <= 0 {
		return false
	}

	var category consumer.Category
	switch {
	case msg.Note == p.gestureNote:
		category = consumer.CategoryGesture
	case msg.Note == p.modeChangeNote:
		category = consumer.CategoryModeChange
	default:
		if _, ok := p.toneNotes[msg.Note]; !ok {
			applog.Debugf("midi: dropping unmapped note %d", msg.Note)
			return false
		}
		category = consumer.CategoryTone
	}

	at := msg.Time
	if at.IsZero() {
		at = time.Now()
	}
	p.sink.Receive(consumer.Event{
		Category: category,
		Velocity: float64(msg.Velocity),
		Time:     at,
	})
	return true
}

// ReadFrom consumes a line protocol of "note velocity" pairs, one hit
// per line, treating each as a note-on stamped at read time. Blank lines
// and '#' comments are skipped; malformed lines are logged and skipped.
// It returns when the reader is exhausted.
func (p *Processor) ReadFrom(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		msg, err := parseLine(line)
		if err != nil {
			applog.Warnf("midi: skipping line %q: %v", line, err)
			continue
		}
		p.Handle(msg)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("midi: note source read failed: %w", err)
	}
	return nil
}

func parseLine(line string) (Message, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Message{}, fmt.Errorf("expected \"note velocity\", got %d fields", len(fields))
	}
	note, err := strconv.Atoi(fields[0])
	if err != nil {
		return Message{}, fmt.Errorf("bad note: %w", err)
	}
	velocity, err := strconv.Atoi(fields[1])
	if err != nil {
		return Message{}, fmt.Errorf("bad velocity: %w", err)
	}
	return Message{
		Type:     TypeNoteOn,
		Note:     note,
		Velocity: velocity,
		Time:     time.Now(),
	}, nil
}
