package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"ceramics-booking/model"
)

type BookingNotice struct {
	Booking    model.Booking
	Slot       model.Slot
	Experience model.Experience
}

type EventNotice struct {
	GroupID      string
	EventName    string
	EventDate    string
	EventTime    string
	Email        string
	Phone        string
	Participants []string
}

var bookingTemplate = template.Must(template.New("booking").Parse(`
<h2>New booking</h2>
<p><strong>{{.Booking.CustomerName}}</strong> booked {{if .Experience.Name}}{{.Experience.Name}}{{else}}a session{{end}}.</p>
<ul>
  <li>Date: {{.Slot.Date}} {{.Slot.StartTime}}</li>
  <li>People: {{.Booking.NumberOfPeople}}</li>
  <li>Total: {{.Booking.TotalPrice.StringFixed 2}}</li>
  <li>E-mail: {{.Booking.CustomerEmail}}</li>
  <li>Phone: {{.Booking.CustomerPhone}}</li>
  <li>Booking ID: {{.Booking.ID}}</li>
</ul>`))

var eventTemplate = template.Must(template.New("event").Parse(`
<h2>New event booking</h2>
<p>{{len .Participants}} place(s) for <strong>{{.EventName}}</strong> on {{.EventDate}} {{.EventTime}}.</p>
<ul>{{range .Participants}}
  <li>{{.}}</li>{{end}}
</ul>
<p>Contact: {{.Email}} / {{.Phone}}<br>Group: {{.GroupID}}</p>`))

func BookingMessage(n BookingNotice) (Message, error) {
	var buf bytes.Buffer
	if err := bookingTemplate.Execute(&buf, n); err != nil {
		return Message{}, err
	}
	return Message{
		ReplyTo: n.Booking.CustomerEmail,
		Subject: fmt.Sprintf("New booking: %s on %s %s", n.Booking.CustomerName, n.Slot.Date, n.Slot.StartTime),
		HTML:    buf.String(),
	}, nil
}

func EventBookingMessage(n EventNotice) (Message, error) {
	var buf bytes.Buffer
	if err := eventTemplate.Execute(&buf, n); err != nil {
		return Message{}, err
	}
	return Message{
		ReplyTo: n.Email,
		Subject: fmt.Sprintf("New event booking: %s (%d)", n.EventName, len(n.Participants)),
		HTML:    buf.String(),
	}, nil
}
