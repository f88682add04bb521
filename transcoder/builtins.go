package transcoder

// builtins returns the Transcodings registered on every new JSONTranscoder.
func builtins() []Transcoding {
	return []Transcoding{
		uuidTranscoding{},
		decimalTranscoding{},
		timestampTranscoding{},
		tupleTranscoding{},
	}
}
