package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

// QRCodeService renders the check-in URL for a meeting as a PNG, for
// projecting at the front of the room.
type QRCodeService struct {
	baseURL string
}

func NewQRCodeService(baseURL string) *QRCodeService {
	return &QRCodeService{baseURL: baseURL}
}

// CheckinURL is the page attendees land on to check in to the meeting.
func (s *QRCodeService) CheckinURL(meetingID uuid.UUID) string {
	return fmt.Sprintf("%s/meetings/%s/checkin", s.baseURL, meetingID)
}

// GenerateCheckinQR encodes the check-in URL as a PNG of the given size.
func (s *QRCodeService) GenerateCheckinQR(meetingID uuid.UUID, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(s.CheckinURL(meetingID), qrcode.Medium, size)
}
