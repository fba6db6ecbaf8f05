// Command inspect is the operator's read-only view of a node's store: the
// room list and a room's contribution leaderboard, rendered as terminal
// tables or exported as a PDF report.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"bobo-live/domain"
	"bobo-live/internal"
	"bobo-live/store"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/jung-kurt/gofpdf"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	DBPath string `envconfig:"BADGER_FILEPATH" default:"./data/badger"`
	// INSPECT_COLOURS enables colorized section headers for readability
	Colours bool `envconfig:"INSPECT_COLOURS" default:"true"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal("Error while reading configuration: ", err)
	}

	dbPath := flag.String("db", cfg.DBPath, "Path to badger DB")
	roomID := flag.String("room", "", "Room ID for the contribution leaderboard")
	limit := flag.Int("limit", 10, "Leaderboard size")
	pdfPath := flag.String("pdf", "", "Export the leaderboard to this PDF file")
	servePort := flag.Int("serve", 0, "Serve the HTML inspect page on this port and wait for /resume")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	docs := store.NewBadger(db, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))

	printRooms(docs, cfg.Colours)

	if *roomID != "" {
		top, err := leaderboard(docs, *roomID, *limit)
		if err != nil {
			log.Fatal("Error while reading contributors: ", err)
		}
		printLeaderboard(*roomID, top, cfg.Colours)

		if *pdfPath != "" {
			if err := exportPDF(*pdfPath, *roomID, top); err != nil {
				log.Fatal("Error while writing PDF: ", err)
			}
			fmt.Println("PDF written to", *pdfPath)
		}
	}

	// Browsable variant of the same data; blocks until /resume is hit so
	// the read-only handle stays open while the operator looks around.
	if *servePort > 0 {
		internal.Inspect(db, *servePort, "/inspect", internal.DefaultMapper, internal.SelfStats, "doc:", nil)
	}
}

func printRooms(docs *store.Badger, colours bool) {
	found, err := docs.QueryDocs(store.Query{Collection: "rooms", OrderBy: "listeners", Desc: true})
	if err != nil {
		log.Fatal("Error while reading rooms: ", err)
	}

	printHeader(fmt.Sprintf(" ROOMS (%d) ", len(found)), colours)

	table := newTable([]string{"ID", "Title", "Host", "Listeners", "Seated", "Mics", "Locked"})
	for _, doc := range found {
		r := domain.RoomFromDoc(doc.ID, doc.Data)
		table.Append([]string{
			r.ID,
			r.Title,
			r.HostID,
			strconv.FormatInt(r.Listeners, 10),
			strconv.Itoa(len(r.Speakers)),
			strconv.Itoa(r.MicCount),
			strconv.FormatBool(r.IsLocked),
		})
	}
	table.Render()
}

func leaderboard(docs *store.Badger, roomID string, limit int) ([]domain.Contribution, error) {
	found, err := docs.QueryDocs(store.Query{
		Collection: "rooms/" + roomID + "/contributors",
		OrderBy:    "amount",
		Desc:       true,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	top := make([]domain.Contribution, 0, len(found))
	for _, doc := range found {
		top = append(top, domain.ContributionFromDoc(doc.ID, doc.Data))
	}
	return top, nil
}

func printLeaderboard(roomID string, top []domain.Contribution, colours bool) {
	printHeader(fmt.Sprintf(" TOP CONTRIBUTORS / room %s ", roomID), colours)

	table := newTable([]string{"Rank", "User", "Name", "Amount"})
	for i, c := range top {
		table.Append([]string{
			strconv.Itoa(i + 1),
			c.UserID,
			c.Name,
			strconv.FormatInt(c.Amount, 10),
		})
	}
	table.Render()
}

func printHeader(header string, colours bool) {
	fmt.Println()
	if colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	fmt.Println(header)
}

func newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
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

func exportPDF(path, roomID string, top []domain.Contribution) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(40, 15, "Contribution Leaderboard")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(40, 10, fmt.Sprintf("Room %s, generated %s", roomID, time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(14)

	pdf.SetFont("Arial", "B", 11)
	for _, h := range []string{"Rank", "User", "Name", "Amount"} {
		pdf.CellFormat(45, 8, h, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 11)
	for i, c := range top {
		pdf.CellFormat(45, 8, strconv.Itoa(i+1), "", 0, "L", false, 0, "")
		pdf.CellFormat(45, 8, c.UserID, "", 0, "L", false, 0, "")
		pdf.CellFormat(45, 8, c.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(45, 8, strconv.FormatInt(c.Amount, 10), "", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	return pdf.OutputFileAndClose(path)
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
