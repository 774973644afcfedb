package admincli

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// GetPassword prints prompt to w and reads a password from fd without echo.
// The caller should wipe the returned slice when done.
func GetPassword(w io.Writer, fd int, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// getNewPassword asks twice and returns the password only if both entries
// match.
func getNewPassword(w io.Writer, fd int) ([]byte, error) {
	first, err := GetPassword(w, fd, "Enter password: ")
	if err != nil {
		return nil, err
	}
	second, err := GetPassword(w, fd, "Repeat password: ")
	if err != nil {
		wipe(first)
		return nil, err
	}
	defer wipe(second)

	if !bytes.Equal(first, second) {
		wipe(first)
		return nil, usageError("passwords do not match")
	}
	return first, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
