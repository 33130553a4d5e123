package transport

type readFunc func(p []byte) (int, error)

// readUntilTerminator は、直近の読み出しの末尾が '\n' になるまで size バイトずつ読み出します。
// 終端の判定は累積長ではなく直近のチャンクの最終バイトで行い、空の読み出しは終端とみなしません。
func readUntilTerminator(read readFunc, size int, mode ReadMode) ([]byte, error) {
	if size <= 0 {
		size = DefaultReadSize
	}
	var response []byte
	for {
		chunk := make([]byte, size)
		n, err := read(chunk)
		if err != nil {
			return nil, err
		}
		chunk = chunk[:n]
		if mode == ReadLastChunk {
			response = chunk
		} else {
			response = append(response, chunk...)
		}
		if 0 < n && chunk[n-1] == '\n' {
			return response, nil
		}
	}
}
