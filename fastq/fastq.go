// Package fastq reads FASTQ files just enough to count records and to
// interleave mate pairs. Records are the standard four lines: header,
// sequence, separator, quality.
package fastq

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

const linesPerRecord = 4

// CountRecords returns the number of complete records in the file at path.
// A trailing partial record is an error: dump and pairing tools always emit
// whole records, so truncation means a damaged file.
func CountRecords(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open fastq: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	lines := 0
	for sc.Scan() {
		lines++
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("scan fastq: %w", err)
	}
	if lines%linesPerRecord != 0 {
		return 0, fmt.Errorf("truncated fastq %s: %d lines", path, lines)
	}
	return lines / linesPerRecord, nil
}

// Interleave writes records from the forward and reverse files to w in
// alternating order. Both files must hold the same number of records; the
// pairing tool guarantees this for its matched outputs. Returns the number
// of pairs written.
func Interleave(w io.Writer, fwdPath, revPath string) (int, error) {
	fwd, err := os.Open(fwdPath)
	if err != nil {
		return 0, fmt.Errorf("open forward: %w", err)
	}
	defer fwd.Close()

	rev, err := os.Open(revPath)
	if err != nil {
		return 0, fmt.Errorf("open reverse: %w", err)
	}
	defer rev.Close()

	fr := newRecordReader(fwd)
	rr := newRecordReader(rev)
	bw := bufio.NewWriter(w)

	pairs := 0
	for {
		frec, err := fr.next()
		if err == io.EOF {
			// The reverse file must end here too.
			if _, rerr := rr.next(); rerr != io.EOF {
				return pairs, fmt.Errorf("reverse %s has more records than forward", revPath)
			}
			break
		}
		if err != nil {
			return pairs, fmt.Errorf("read forward: %w", err)
		}

		rrec, err := rr.next()
		if err == io.EOF {
			return pairs, fmt.Errorf("forward %s has more records than reverse", fwdPath)
		}
		if err != nil {
			return pairs, fmt.Errorf("read reverse: %w", err)
		}

		if _, err := bw.Write(frec); err != nil {
			return pairs, err
		}
		if _, err := bw.Write(rrec); err != nil {
			return pairs, err
		}
		pairs++
	}

	if err := bw.Flush(); err != nil {
		return pairs, err
	}
	return pairs, nil
}

// recordReader yields one whole record at a time, newlines included.
type recordReader struct {
	r *bufio.Reader
}

func newRecordReader(r io.Reader) *recordReader {
	return &recordReader{r: bufio.NewReader(r)}
}

// next returns io.EOF only on a clean record boundary; EOF inside a record
// is reported as an error.
func (rr *recordReader) next() ([]byte, error) {
	var rec []byte
	for i := 0; i < linesPerRecord; i++ {
		line, err := rr.r.ReadBytes('\n')
		if err == io.EOF {
			if i == 0 && len(line) == 0 {
				return nil, io.EOF
			}
			if len(line) > 0 && i == linesPerRecord-1 {
				// Last line of the file may lack a trailing newline.
				rec = append(rec, line...)
				rec = append(rec, '\n')
				return rec, nil
			}
			return nil, fmt.Errorf("truncated record at line %d", i+1)
		}
		if err != nil {
			return nil, err
		}
		rec = append(rec, line...)
	}
	return rec, nil
}
