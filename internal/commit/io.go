package commit

import "os"

// writeFullAt retries WriteAt until every byte of b has been written
// or a hard error occurs, per the design's "numeric semantics": a
// short write is not itself an error, only a reason to keep going.
func writeFullAt(f *os.File, b []byte, offset int64) error {
	for len(b) > 0 {
		n, err := f.WriteAt(b, offset)
		if err != nil {
			return err
		}
		b = b[n:]
		offset += int64(n)
	}
	return nil
}
