package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/A-Akhil/BluePrint/internal/util"
	"github.com/A-Akhil/BluePrint/pkg/model"
)

type fastaRecord struct {
	id    string
	seq   string
	reads int
}

func parseFasta(r io.Reader, onRecord func(fastaRecord) error) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var header string
	var seq bytes.Buffer
	emit := func() error {
		if header == "" {
			return nil
		}
		rec := fastaRecord{
			id:    fastaID(header),
			seq:   seq.String(),
			reads: fastaReads(header),
		}
		seq.Reset()
		header = ""
		return onRecord(rec)
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ">") {
			if err := emit(); err != nil {
				return err
			}
			header = strings.TrimSpace(line[1:])
			continue
		}
		seq.WriteString(strings.TrimSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan fasta: %w", err)
	}
	return emit()
}

func fastaID(header string) string {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return ""
	}
	// Dereplication tools append ";size=N" to the id.
	id, _, _ := strings.Cut(fields[0], ";")
	return id
}

// fastaReads extracts a ";size=N" annotation, the usearch/vsearch convention
// for pre-aggregated duplicate reads. Anything else counts as one read.
func fastaReads(header string) int {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return 1
	}
	for _, part := range strings.Split(fields[0], ";") {
		value, ok := strings.CutPrefix(part, "size=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return 1
		}
		return n
	}
	return 1
}

// readSequences loads a FASTA or gzipped FASTA file. Records with identical
// sequence data collapse into one entry with their read counts summed, so
// the cascade runs once per distinct sequence.
func readSequences(path string) ([]model.Sequence, error) {
	in, err := util.OpenInput(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	var seqs []model.Sequence
	index := make(map[string]int)

	err = parseFasta(in, func(rec fastaRecord) error {
		if rec.seq == "" {
			return fmt.Errorf("record %q has no sequence data", rec.id)
		}
		data := strings.ToUpper(rec.seq)
		if i, ok := index[data]; ok {
			seqs[i].ReadCount += rec.reads
			return nil
		}
		index[data] = len(seqs)
		seqs = append(seqs, model.Sequence{ID: rec.id, Data: data, ReadCount: rec.reads})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return seqs, nil
}
