package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/shirou/gopsutil/process"
)

//go:embed inspect.html
var templatesFS embed.FS

var (
	resumeChan  = make(chan struct{}, 1)
	currentPort int
)

type InspectRow struct {
	Key        string
	Collection string
	DocID      string
	Timestamp  string
	Fields     string
	Detail     string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

func Inspect(db *badger.DB, port int, endpoint string, mapper RowMapper, statsProvider StatsProvider, prefix string, fn func()) {
	StartDebugServer(db, port, endpoint, mapper, statsProvider)

	if fn != nil {
		fn()
	}

	Wait(prefix)
}

func StartDebugServer(db *badger.DB, port int, endpoint string, mapper RowMapper, statsProvider StatsProvider) {
	currentPort = port
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	if mapper == nil {
		mapper = DefaultMapper
	}

	mux.HandleFunc(endpoint, func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "doc:"
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}

		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	mux.HandleFunc("/resume", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-resumeChan:
		default:
		}
		resumeChan <- struct{}{}
		fmt.Fprint(w, "RESUMED")
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
}

func Wait(prefix string) {
	url := fmt.Sprintf("http://localhost:%d/inspect?prefix=%s", currentPort, prefix)
	fmt.Printf("\n--- PAUSED ---\n\n%s\n\n--------------\n", url)
	<-resumeChan
}

// DefaultMapper decodes a "doc:<collection>/<id>" entry. Values are JSON
// documents; the timestamp column is filled from a "timestamp" field when
// the document carries one (stored as UnixNano).
func DefaultMapper(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:        key,
		Collection: "-",
		DocID:      "--------",
		Timestamp:  "--:--:--",
		Fields:     "-",
		Detail:     "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	path := strings.TrimPrefix(key, "doc:")
	if i := strings.LastIndex(path, "/"); i > 0 {
		row.Collection = path[:i]
		row.DocID = path[i+1:]
		if len(row.DocID) > 8 {
			row.DocID = row.DocID[:8]
		}
	}

	var doc map[string]any
	if err := json.Unmarshal(val, &doc); err != nil {
		return row
	}
	row.Fields = strconv.Itoa(len(doc))
	if ts, ok := doc["timestamp"].(float64); ok && ts > 0 {
		row.Timestamp = time.Unix(0, int64(ts)).Format("15:04:05")
	}

	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)
	row.Detail = strings.Join(names, ", ")
	return row
}

// SelfStats collects CPU and memory figures for the running process, for the
// dashboard header of the inspect page.
func SelfStats() map[string]any {
	stats := map[string]any{"PID": os.Getpid()}

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return stats
	}
	if cpu, err := p.CPUPercent(); err == nil {
		stats["CPU %"] = fmt.Sprintf("%.1f", cpu)
	}
	if mem, err := p.MemoryInfo(); err == nil {
		stats["RSS MB"] = mem.RSS / (1 << 20)
	}
	if status, err := p.Status(); err == nil {
		stats["Status"] = status
	}
	return stats
}
