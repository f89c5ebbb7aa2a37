package host

import (
	"archive/zip"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cellquery/sqlitefn/refs"
)

// ArchiveResolver resolves named tables to "<Table>.<ext>" entries inside a
// zip archive, the packaged form a spreadsheet host might export its
// backing tables in. It reuses the same csv/json/txt loaders as
// FilesystemResolver.
type ArchiveResolver struct {
	reader *zip.Reader
}

// NewArchiveResolver wraps an already-opened zip reader.
func NewArchiveResolver(r *zip.Reader) *ArchiveResolver {
	return &ArchiveResolver{reader: r}
}

func (a *ArchiveResolver) Resolve(ctx context.Context, ref refs.TableReference, headers bool) (*Table, error) {
	if !ref.IsTable() {
		return nil, rangeResolutionErr(ref, "archive resolver only resolves named tables")
	}

	entry, err := a.findEntry(ref.Table)
	if err != nil {
		return nil, rangeResolutionErr(ref, err.Error())
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, rangeResolutionErr(ref, err.Error())
	}
	defer rc.Close()

	table, err := loadByExtension(rc, filepath.Ext(entry.Name), headers, false)
	if err != nil {
		return nil, rangeResolutionErr(ref, err.Error())
	}
	if len(table.Rows) == 0 && len(table.Columns) == 0 {
		return nil, emptyRangeErr(ref)
	}
	return table, nil
}

func (a *ArchiveResolver) findEntry(table string) (*zip.File, error) {
	for _, ext := range []string{".csv", ".json", ".txt"} {
		for _, f := range a.reader.File {
			name := f.Name
			if strings.EqualFold(strings.TrimSuffix(name, filepath.Ext(name)), table) && strings.EqualFold(filepath.Ext(name), ext) {
				return f, nil
			}
		}
	}
	return nil, fmt.Errorf("no such table: %s", table)
}
