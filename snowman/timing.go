package snowman

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/teranos/snowcam"
)

//go:embed timing.yaml
var defaultTiming []byte

// DefaultTimingTable returns a fresh copy of the canonical timing table.
func DefaultTimingTable() *snowcam.TimingTable {
	table, err := snowcam.LoadTimingTable(bytes.NewReader(defaultTiming))
	if err != nil {
		panic(fmt.Sprintf("embedded timing table: %v", err))
	}
	return table
}

// Sequence compiles table against s, or the canonical table when table is
// nil.
func Sequence(s *Scene, table *snowcam.TimingTable) (snowcam.Sequence, error) {
	if table == nil {
		table = DefaultTimingTable()
	}
	return table.Compile(s.Targets())
}
