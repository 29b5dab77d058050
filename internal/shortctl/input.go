package shortctl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dmitrijs2005/shortener/internal/shared"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var ErrPasswordMismatch = errors.New("passwords do not match")

// GetSimpleText prints a prompt to w and reads a single line from reader.
// If EOF occurs after some input was read, the partial line is returned.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword prints prompt to w and reads a password from the terminal
// without echo. The caller must wipe the result.
func GetPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// GetNewPassword reads a password twice and returns it when both entries
// match. The confirmation is always wiped.
func GetNewPassword(w io.Writer) ([]byte, error) {
	pw, err := GetPassword(w, "New password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := GetPassword(w, "Repeat password: ")
	defer shared.WipeByteArray(confirm)
	if err != nil {
		shared.WipeByteArray(pw)
		return nil, err
	}
	if string(pw) != string(confirm) {
		shared.WipeByteArray(pw)
		return nil, ErrPasswordMismatch
	}
	return pw, nil
}
