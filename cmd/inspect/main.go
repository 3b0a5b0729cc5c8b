// Command inspect prints the records of a Badger keyspace, with the time left
// before each message expires.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ephemeral-chat/infrastructure/storage"
	"github.com/dgraph-io/badger/v4"
	"github.com/dustin/go-humanize"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB")
	prefix := flag.String("prefix", "msg:id:", "Prefix to scan (user:id:, conv:id:, msg:id:)")
	indexes := flag.Bool("indexes", false, "Also list index entries")
	conversations := flag.Bool("conversations", false, "Summarize conversations instead of dumping raw records")
	flag.Parse()

	if err := run(*dbPath, *prefix, *indexes, *conversations); err != nil {
		fmt.Fprintf(os.Stderr, "Inspect error: %v\n", err)
		os.Exit(1)
	}
}

func run(path, prefix string, indexes, conversations bool) error {
	if path == "" {
		return fmt.Errorf("a database path is required (-db or BADGER_FILEPATH)")
	}
	log := logs.GetLoggerFromLevel(slog.LevelError)
	db, err := storage.OpenReadOnly(path, log)
	if err != nil {
		return fmt.Errorf("error while opening Badger: %w", err)
	}
	defer func() { _ = db.Close() }()

	if conversations {
		return listConversations(storage.NewConversationRepository(db, log))
	}

	table := newTable("Key", "Type", "ID", "Created", "Expires", "Detail")
	now := time.Now()
	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			record := storage.Describe(key, value)
			if record.Kind == storage.KindIndex && !indexes {
				continue
			}
			table.Append([]string{key, record.Kind, record.ID, created(record), expires(record, now), record.Detail})
			count++
		}
		return nil
	})
	if err != nil {
		return err
	}

	table.Render()
	fmt.Printf("%s records\n", humanize.Comma(int64(count)))
	return nil
}

func listConversations(repository *storage.ConversationRepository) error {
	conversations, err := repository.ListAll()
	if err != nil {
		return err
	}
	now := time.Now()
	table := newTable("ID", "Participant A", "Participant B", "Last message", "Preview")
	for _, c := range conversations {
		table.Append([]string{
			c.ID,
			c.ParticipantA,
			c.ParticipantB,
			humanize.RelTime(c.LastMessageAt, now, "ago", "from now"),
			c.LastMessagePreview,
		})
	}
	table.Render()
	fmt.Printf("%s conversations\n", humanize.Comma(int64(len(conversations))))
	return nil
}

func newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func created(record storage.Record) string {
	if record.CreatedAt.IsZero() {
		return ""
	}
	return record.CreatedAt.Format(time.DateTime)
}

// expires shows a relative time: "3 hours from now", or "2 minutes ago" for a message the reaper did not remove yet.
func expires(record storage.Record, now time.Time) string {
	if record.ExpiresAt.IsZero() {
		return ""
	}
	return humanize.RelTime(record.ExpiresAt, now, "ago", "from now")
}
