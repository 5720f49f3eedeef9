// Package parser reads key matrix events out of the ZMK debug console.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dasdy/keyoverlay/model"
)

// ParseLine extracts a matrix event from a ZMK kscan log line. Lines that
// carry no event yield nil without an error.
func ParseLine(line string) (*model.KeyEvent, error) {
	splits := strings.Split(strings.TrimRight(line, "\r\n"), " ")

	var (
		row, col, position, foundCount int
		pressed                        bool
		err                            error
	)
	ix := 0
	limit := len(splits) - 1 // We always care about the next token, so stop before it's too late

	for ix < limit {
		curItem := splits[ix]
		nextItem := strings.TrimRight(splits[ix+1], ",")

		switch curItem {
		case "Row:":
			row, err = strconv.Atoi(nextItem)
			if err != nil {
				return nil, fmt.Errorf("could not parse row: %w", err)
			}
			ix++
			foundCount++
		case "col:":
			col, err = strconv.Atoi(nextItem)
			if err != nil {
				return nil, fmt.Errorf("could not parse col: %w", err)
			}
			ix++
			foundCount++
		case "position:":
			position, err = strconv.Atoi(nextItem)
			if err != nil {
				return nil, fmt.Errorf("could not parse position: %w", err)
			}
			foundCount++
			ix++
		case "pressed:":
			// Trim the reset escape code from the output.
			nextItem = strings.TrimSuffix(nextItem, "\x1b[0m")
			switch nextItem {
			case "true":
				pressed = true
			case "false":
				pressed = false
			default:
				return nil, fmt.Errorf("pressed value unexpected: '%s'", nextItem)
			}
			ix++
			foundCount++
		default:
		}

		ix++
	}
	if foundCount == 4 {
		return &model.KeyEvent{Row: row, Col: col, Position: position, Pressed: pressed}, nil
	}
	return nil, nil
}
