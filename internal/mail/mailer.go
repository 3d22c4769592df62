package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var verificationTemplate = template.Must(template.New("verification").Parse(
	`<p>BlockOn Email 인증</p><a href="{{.Link}}">인증하기</a>`,
))

// VerificationMessage builds the challenge email that links back to the
// confirmation endpoint at baseURL.
func VerificationMessage(baseURL string, email string, token string) (Message, error) {
	link, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/api/auth/authEmail")
	if err != nil {
		return Message{}, fmt.Errorf("parse link base: %w", err)
	}
	query := url.Values{}
	query.Set("email", email)
	query.Set("token", token)
	link.RawQuery = query.Encode()

	var body bytes.Buffer
	if err := verificationTemplate.Execute(&body, struct{ Link string }{Link: link.String()}); err != nil {
		return Message{}, fmt.Errorf("render verification email: %w", err)
	}

	return Message{
		To:      email,
		Subject: "안녕하세요, BlockOn 입니다. 이메일 인증을 해주세요.",
		HTML:    body.String(),
	}, nil
}
