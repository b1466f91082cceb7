// Package models is loaded by the source provider tests.
package models

import (
	"encoding/json"
	"time"

	"github.com/tsdefgen/tsdefgen/provider/testdata/shared"
)

// Person is a customer.
// Second line of the doc.
type Person struct {
	// Name is the display name.
	Name     string   `json:"name" validate:"required"`
	Age      int      `json:"age,omitempty"`
	Nickname *string  `json:"nickname"`
	Home     Address  `json:"home"`
	Work     *Address `json:"work,omitempty"`
	Tags     []string `json:"tags"`
	Matrix   [][]int  `json:"matrix"`
	Color    Color    `json:"color"`
	Level    Level    `json:"level"`
	Born     time.Time
	Labels   map[string]string  `json:"labels"`
	Extra    map[string]Address `json:"extra"`
	Raw      []byte             `json:"raw"`
	Any      any                `json:"any"`
	Geo      struct {
		Lat  float64 `json:"lat"`
		Meta struct {
			Source string `json:"source"`
		} `json:"meta"`
	} `json:"geo"`
	Hidden   string `json:"-"`
	internal string
	Done     chan bool `json:"done"`
}

// Address is a postal address.
type Address struct {
	Street string `json:"street"`
}

// Color is a display color.
type Color int

const (
	Red Color = iota
	Blue
	Green Color = 0x1F
)

// Level is a string enum.
type Level string

const (
	LevelLow  Level = "low"
	LevelHigh Level = "high"
)

// Celsius has no constants, so it renders as its primitive.
type Celsius float64

// Employee extends Person.
type Employee struct {
	Person
	shared.Audit
	ID   string  `json:"id"`
	Temp Celsius `json:"temp"`
}

// Staff extends a type from another package.
type Staff struct {
	shared.Audit
	Role     string        `json:"role"`
	Approver *shared.Audit `json:"approver,omitempty"`
}

// Stamp marshals itself.
type Stamp struct {
	At int64
}

func (s Stamp) MarshalJSON() ([]byte, error) { return json.Marshal(s.At) }

// Log references a custom marshaler.
type Log struct {
	Stamp Stamp `json:"stamp"`
}

type link struct {
	Value int   `json:"value"`
	Next  *link `json:"next"`
}

// Chain holds a self-referential unexported type.
type Chain struct {
	Head link `json:"head"`
}
