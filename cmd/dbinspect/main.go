// Package main prints a read-only summary of an EasyComment database.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-json-experiment/json"

	"github.com/easycomment/easycomment-server/internal/domain"
)

var cli struct {
	Path     string `default:"${default_path}" env:"DATA_PATH" help:"Badger data directory."`
	Instance string `short:"i" help:"Only show this instance."`
	Comments int    `default:"5" help:"Number of most recent comments to print per instance."`
	Keys     bool   `help:"Dump every key with its value size."`
}

func main() {
	home, _ := os.UserHomeDir()
	ctx := kong.Parse(&cli,
		kong.Name("dbinspect"),
		kong.Description("Inspect an EasyComment database without modifying it."),
		kong.Vars{"default_path": home + "/EasyComment/data"},
	)

	opts := badger.DefaultOptions(cli.Path).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	ctx.FatalIfErrorf(err, "failed to open database")
	defer db.Close()

	if cli.Keys {
		ctx.FatalIfErrorf(dumpKeys(db, ctx.Stdout))
		return
	}
	ctx.FatalIfErrorf(summarize(db, ctx.Stdout, cli.Instance, cli.Comments))
}

type instanceSummary struct {
	instance *domain.Instance
	recent   []*domain.Comment
	comments int
	hidden   int
	settings bool
}

func summarize(db *badger.DB, w io.Writer, only string, recent int) error {
	summaries := make(map[string]*instanceSummary)
	get := func(id string) *instanceSummary {
		s, ok := summaries[id]
		if !ok {
			s = &instanceSummary{}
			summaries[id] = s
		}
		return s
	}

	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())
			prefix, rest, _ := strings.Cut(key, ":")

			switch prefix {
			case "instance":
				if only != "" && rest != only {
					continue
				}
				var inst domain.Instance
				if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &inst) }); err != nil {
					return fmt.Errorf("decode %s: %w", key, err)
				}
				get(rest).instance = &inst
			case "settings":
				if only != "" && rest != only {
					continue
				}
				get(rest).settings = true
			case "comment":
				instanceID, _, _ := strings.Cut(rest, ":")
				if only != "" && instanceID != only {
					continue
				}
				var c domain.Comment
				if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &c) }); err != nil {
					return fmt.Errorf("decode %s: %w", key, err)
				}
				s := get(instanceID)
				s.comments++
				if c.Hidden {
					s.hidden++
				}
				s.recent = append(s.recent, &c)
				if len(s.recent) > recent {
					s.recent = s.recent[1:]
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(summaries))
	for id := range summaries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Fprintln(w, "=== Database Inspection ===")
	fmt.Fprintln(w)

	instances, orphans := 0, 0
	for _, id := range ids {
		s := summaries[id]
		if s.instance == nil {
			orphans += s.comments
			continue
		}
		instances++
		fmt.Fprintf(w, "Instance: %s\n", s.instance.Name)
		fmt.Fprintf(w, "  ID: %s\n", id)
		fmt.Fprintf(w, "  Created: %s\n", s.instance.CreatedAt.Format("2006-01-02 15:04:05 -0700"))
		fmt.Fprintf(w, "  Password protected: %t\n", s.instance.RequiresAuth())
		fmt.Fprintf(w, "  Settings stored: %t\n", s.settings)
		fmt.Fprintf(w, "  Comments: %d (%d hidden)\n", s.comments, s.hidden)
		for _, c := range s.recent {
			mark := ""
			if c.Hidden {
				mark = " [hidden]"
			}
			fmt.Fprintf(w, "    %s %s: %s%s\n", c.Timestamp.Format("15:04:05"), c.Author, c.Content, mark)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Instances: %d\n", instances)
	if orphans > 0 {
		fmt.Fprintf(w, "Orphaned comments: %d\n", orphans)
	}
	return nil
}

func dumpKeys(db *badger.DB, w io.Writer) error {
	return db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			fmt.Fprintf(w, "%s (%d bytes)\n", item.Key(), item.ValueSize())
		}
		return nil
	})
}
