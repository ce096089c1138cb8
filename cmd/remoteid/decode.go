package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"remoteid-beacon/internal/remoteid"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [HEX...]",
	Short: "Decode remote ID vendor elements to JSON",
	Long: `decode prints one JSON object per vendor element given as arguments, or
read one per line from STDIN when there are none. Blank lines are ignored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if len(args) > 0 {
			in = strings.NewReader(strings.Join(args, "\n"))
		}
		return decodeLines(in, cmd.OutOrStdout())
	},
}

type decoded struct {
	Element string          `json:"element"`
	Fields  []int           `json:"fields"`
	Record  remoteid.Record `json:"record"`
}

// decodeLines stops at the first element that does not decode.
func decodeLines(r io.Reader, w io.Writer) error {
	enc := json.NewEncoder(w)
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.ToLower(strings.TrimSpace(sc.Text()))
		if line == "" {
			continue
		}
		raw, err := hex.DecodeString(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		rec, err := remoteid.Decode(raw)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		types, _ := remoteid.Fields(raw)
		fields := make([]int, len(types))
		for i, t := range types {
			fields[i] = int(t)
		}
		if err := enc.Encode(decoded{Element: line, Fields: fields, Record: rec}); err != nil {
			return err
		}
	}
	return sc.Err()
}
