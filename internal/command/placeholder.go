package command

// CountPlaceholders counts '?' value placeholders in text.
//
// Marks inside single, double or backtick quoted runs are not placeholders,
// nor is a '?' escaped with a backslash.
func CountPlaceholders(text string) int {
	n := 0
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\\' {
			i++
			continue
		}
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '?':
			n++
		}
	}
	return n
}
