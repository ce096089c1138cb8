package beacon

import (
	"context"
	"fmt"
	"net"
	"strconv"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// DefaultBeaconTable is the GreptimeDB table beacons are written to.
const DefaultBeaconTable = "remoteid_beacons"

const defaultGreptimePort = 4001

type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter records beacons in GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client greptimeClient
	table  string
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port").
func NewGreptimeDBWriter(endpoint, database, tableName string) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	if tableName == "" {
		tableName = DefaultBeaconTable
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return &GreptimeDBWriter{client: client, table: tableName}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		// no port given
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("greptime endpoint %q: bad port", endpoint)
	}
	return host, port, nil
}

// Write inserts a single beacon.
func (w *GreptimeDBWriter) Write(b Beacon) error {
	return w.WriteBatch([]Beacon{b})
}

// WriteBatch inserts multiple beacons.
func (w *GreptimeDBWriter) WriteBatch(rows []Beacon) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.table)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("session_id", types.STRING)
	tbl.AddFieldColumn("seq", types.UINT64)
	tbl.AddFieldColumn("lat", types.FLOAT64)
	tbl.AddFieldColumn("lon", types.FLOAT64)
	tbl.AddFieldColumn("alt", types.FLOAT64)
	tbl.AddFieldColumn("height", types.FLOAT64)
	tbl.AddFieldColumn("home_lat", types.FLOAT64)
	tbl.AddFieldColumn("home_lon", types.FLOAT64)
	tbl.AddFieldColumn("speed", types.FLOAT64)
	tbl.AddFieldColumn("course", types.FLOAT64)
	tbl.AddFieldColumn("element", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		rec := r.Record
		if err := tbl.AddRow(r.SessionID, r.Seq,
			rec.Position.Lat, rec.Position.Lon, rec.Altitude, rec.Height,
			rec.Home.Lat, rec.Home.Lon, rec.Speed, rec.Course,
			r.Element, r.Timestamp); err != nil {
			return err
		}
	}

	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		return fmt.Errorf("greptime write %d rows to %s: %w", len(rows), w.table, err)
	}
	return nil
}
