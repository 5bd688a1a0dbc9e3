package jsontoken

// ScanTrue consumes "rue" after a dispatch byte 't' has already been read.
func (l *Lexer) ScanTrue() error { return l.expectLiteralTail("rue") }

// ScanFalse consumes "alse" after a dispatch byte 'f' has already been read.
func (l *Lexer) ScanFalse() error { return l.expectLiteralTail("alse") }

// ScanNull consumes "ull" after a dispatch byte 'n' has already been read.
func (l *Lexer) ScanNull() error { return l.expectLiteralTail("ull") }

func (l *Lexer) expectLiteralTail(tail string) error {
	for i := 0; i < len(tail); i++ {
		b, ok, err := l.r.NextByte()
		if err != nil {
			return err
		}
		if !ok {
			return l.errUnexpectedEOF("unexpected EOF in literal")
		}
		if b != tail[i] {
			l.r.PushBack()
			return l.errUnexpectedInput("invalid literal")
		}
	}
	return nil
}
