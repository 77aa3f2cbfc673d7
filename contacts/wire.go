package contacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"strconv"
	"strings"
)

const (
	imagePartName     = "file"
	imagePartFileName = "profile.jpg"
	imagePartMimeType = "image/jpeg"
)

// wireContact is the record as the backend sends it. Role and location arrive
// in more than one encoding; fromWire is the only place they are reconciled.
type wireContact struct {
	ID             int         `json:"id"`
	Name           string      `json:"name"`
	Phone          string      `json:"phone"`
	Email          *string     `json:"email"`
	Image          *string     `json:"image"`
	ProfilePicture *string     `json:"profilePicture"`
	ContactType    string      `json:"contactType"`
	IsEmployee     *bool       `json:"isEmployee"`
	Latitude       *flexFloat  `json:"latitude"`
	Longitude      *flexFloat  `json:"longitude"`
	Location       *wireLatLng `json:"location"`
}

type wireLatLng struct {
	Latitude  flexFloat `json:"latitude"`
	Longitude flexFloat `json:"longitude"`
}

// flexFloat accepts both 43.6 and "43.6", since multipart backends tend to echo
// form values back as strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %s: %v", data, err)
	}

	*f = flexFloat(value)
	return nil
}

func fromWire(w wireContact) Contact {
	contact := Contact{
		ID:    w.ID,
		Name:  w.Name,
		Phone: w.Phone,
	}

	if w.Email != nil {
		contact.Email = *w.Email
	}

	switch {
	case w.ProfilePicture != nil && *w.ProfilePicture != "":
		contact.Image = *w.ProfilePicture
	case w.Image != nil:
		contact.Image = *w.Image
	}

	// contactType wins over isEmployee, it is what the server stores
	if strings.TrimSpace(w.ContactType) != "" {
		contact.IsEmployee = strings.EqualFold(strings.TrimSpace(w.ContactType), ContactTypeEmployee)
	} else if w.IsEmployee != nil {
		contact.IsEmployee = *w.IsEmployee
	}

	if w.Latitude != nil && w.Longitude != nil {
		contact.Location = &Location{Latitude: float64(*w.Latitude), Longitude: float64(*w.Longitude)}
	} else if w.Location != nil {
		contact.Location = &Location{Latitude: float64(w.Location.Latitude), Longitude: float64(w.Location.Longitude)}
	}

	return contact
}

func decodeContact(r io.Reader) (*Contact, error) {
	w := wireContact{}
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return nil, fmt.Errorf("unable to decode contact: %v", err)
	}

	contact := fromWire(w)
	return &contact, nil
}

func decodeContacts(r io.Reader) ([]Contact, error) {
	list := []wireContact{}
	if err := json.NewDecoder(r).Decode(&list); err != nil && err != io.EOF {
		return nil, fmt.Errorf("unable to decode contacts: %v", err)
	}

	result := make([]Contact, 0, len(list))
	for _, w := range list {
		result = append(result, fromWire(w))
	}
	return result, nil
}

type formField struct {
	name  string
	value string
}

// formFields flattens a contact into the multipart text fields. The id is never sent.
func formFields(c Contact) []formField {
	fields := []formField{
		{"name", c.Name},
		{"phone", c.Phone},
	}

	if c.Email != "" {
		fields = append(fields, formField{"email", c.Email})
	}

	fields = append(fields, formField{"contactType", c.ContactType()})

	if c.Location != nil {
		fields = append(fields,
			formField{"latitude", strconv.FormatFloat(c.Location.Latitude, 'f', -1, 64)},
			formField{"longitude", strconv.FormatFloat(c.Location.Longitude, 'f', -1, 64)},
		)
	}

	return fields
}

// encodeMultipart builds the whole request body up front, so an unreadable
// image fails the operation before anything is sent.
func encodeMultipart(c Contact, imageURI string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, field := range formFields(c) {
		if err := writer.WriteField(field.name, field.value); err != nil {
			return nil, "", err
		}
	}

	if path, ok := localImagePath(imageURI); ok {
		if err := writeImagePart(writer, path); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

func writeImagePart(writer *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to read image %s: %v", path, err)
	}
	defer f.Close()

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, imagePartName, imagePartFileName))
	header.Set("Content-Type", imagePartMimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}

	if _, err = io.Copy(part, f); err != nil {
		return fmt.Errorf("unable to read image %s: %v", path, err)
	}

	return nil
}

// localImagePath returns the file path for device URIs. Remote URIs
// (http, https, ...) are already persisted and are not uploaded again.
func localImagePath(uri string) (string, bool) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", false
	}

	if strings.HasPrefix(uri, "file://") {
		return strings.TrimPrefix(uri, "file://"), true
	}

	if strings.Contains(uri, "://") {
		return "", false
	}

	return uri, true
}
