package webapp

import (
	"time"

	"github.com/fwojciec/wicket"
)

// apiEnvelope is the failure envelope shared by all responses. OK is a
// pointer so that responses without the field (e.g. history) are not
// mistaken for explicit ok:false.
type apiEnvelope struct {
	OK    *bool  `json:"ok"`
	Error string `json:"error"`
}

type apiAuthRequest struct {
	InitData string `json:"init_data"`
}

type apiAuthResponse struct {
	Token          string `json:"token"`
	ConversationID int64  `json:"conversation_id"`
}

type apiHistoryResponse struct {
	Messages []apiMessage `json:"messages"`
}

type apiMessage struct {
	ID          int64           `json:"id"`
	From        string          `json:"from"`
	Text        string          `json:"text"`
	Attachments []apiAttachment `json:"attachments"`
	TS          int64           `json:"ts"` // seconds since epoch
}

type apiAttachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type apiSendRequest struct {
	Text string `json:"text"`
}

func (m apiMessage) toDomain() wicket.Message {
	var atts []wicket.Attachment
	for _, a := range m.Attachments {
		atts = append(atts, wicket.Attachment{URL: a.URL, Name: a.Name})
	}
	return wicket.Message{
		ID:          m.ID,
		From:        wicket.Side(m.From),
		Text:        m.Text,
		Attachments: atts,
		Timestamp:   time.Unix(m.TS, 0).UTC(),
	}
}
