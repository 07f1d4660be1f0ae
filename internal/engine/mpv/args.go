package mpv

// ParseArgs splits a string of command-line arguments, respecting quotes.
func ParseArgs(argsString string) []string {
	var args []string
	var quote rune
	current := ""
	quoted := false

	for _, r := range argsString {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
			quoted = true
		case quote == 0 && (r == ' ' || r == '\t'):
			if current != "" || quoted {
				args = append(args, current)
				current = ""
				quoted = false
			}
		default:
			current += string(r)
		}
	}

	if current != "" || quoted {
		args = append(args, current)
	}

	return args
}
