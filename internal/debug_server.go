// Package internal hosts the operator-facing debug page: a read-only view
// over the stored messages plus live counters. It is bound to its own port
// and never exposed next to the public API.
package internal

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const inspectPage = `<!DOCTYPE html>
<html>
<head>
<title>chat-rooms inspector</title>
<style>
body { font-family: monospace; background: #111; color: #ddd; margin: 2em; }
h1 { color: #6cf; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #333; padding: 4px 8px; text-align: left; }
th { background: #222; color: #6cf; }
.stats { margin-bottom: 1.5em; }
.stats span { display: inline-block; margin-right: 2em; color: #9f9; }
</style>
</head>
<body>
<h1>chat-rooms inspector</h1>
<div class="stats">
{{range $key, $value := .Stats}}<span>{{$key}}: {{$value}}</span>{{end}}
</div>
<form method="get"><input name="prefix" value="{{.Prefix}}" size="40"/><button>scan</button></form>
<table>
<tr><th>Key</th><th>Room</th><th>Time</th><th>Author</th><th>Body</th></tr>
{{range .Items}}
<tr><td>{{.Key}}</td><td>{{.Room}}</td><td>{{.Timestamp}}</td><td>{{.Author}}</td><td>{{.Body}}</td></tr>
{{end}}
</table>
</body>
</html>`

type InspectRow struct {
	Key       string
	Room      string
	Timestamp string
	Author    string
	Body      string
}

type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// StartDebugServer serves the inspector on its own port. The page scans the
// requested key prefix ("msg:" by default) and renders one row per record.
func StartDebugServer(db *badger.DB, port int, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.New("inspect").Parse(inspectPage))

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
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
					data.Items = append(data.Items, messageRow(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
}

// messageRow decodes one "msg:{room}:{ts}:{uuid}" record into a table row.
// Records under other prefixes fall back to a raw rendering.
func messageRow(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:       key,
		Room:      "-",
		Timestamp: "--:--:--",
		Author:    "-",
		Body:      "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	parts := strings.Split(key, ":")
	if len(parts) >= 4 && parts[0] == "msg" {
		row.Room = parts[1]
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).UTC().Format("2006-01-02 15:04:05")
		}
	}

	var record struct {
		Author  string `json:"author"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(val, &record); err == nil && record.Author != "" {
		row.Author = record.Author
		row.Body = record.Content
	}
	return row
}
