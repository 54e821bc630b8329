package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var errEmptyInput = errors.New("empty input")

// prompter читает ответы пользователя. Пароль с терминала читается без эха.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	// fd: дескриптор терминала, -1 если ввод не терминал.
	fd int
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &prompter{in: bufio.NewReader(in), out: out, fd: fd}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	s = strings.TrimRight(s, "\r\n")
	if s == "" {
		return "", fmt.Errorf("%s: %w", label, errEmptyInput)
	}
	return s, nil
}

func (p *prompter) password(label string) (string, error) {
	if p.fd < 0 {
		return p.line(label)
	}

	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	if len(b) == 0 {
		return "", fmt.Errorf("%s: %w", label, errEmptyInput)
	}
	return string(b), nil
}
