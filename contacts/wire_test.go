package contacts

import (
	"io/ioutil"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeContactNormalizesRole(t *testing.T) {
	cases := []struct {
		description string
		body        string
		expected    bool
	}{
		{"contactType employee", `{"id":1,"name":"Jo","phone":"1","contactType":"employee"}`, true},
		{"contactType client", `{"id":1,"name":"Jo","phone":"1","contactType":"client"}`, false},
		{"contactType wins over isEmployee", `{"id":1,"name":"Jo","phone":"1","contactType":"client","isEmployee":true}`, false},
		{"contactType is case insensitive", `{"id":1,"name":"Jo","phone":"1","contactType":"Employee"}`, true},
		{"isEmployee only", `{"id":1,"name":"Jo","phone":"1","isEmployee":true}`, true},
		{"no role at all", `{"id":1,"name":"Jo","phone":"1"}`, false},
	}

	for _, c := range cases {
		contact, err := decodeContact(strings.NewReader(c.body))
		require.Nil(t, err, c.description)
		assert.Equal(t, c.expected, contact.IsEmployee, c.description)
	}
}

func TestDecodeContactNormalizesLocation(t *testing.T) {
	cases := []struct {
		description string
		body        string
		expected    *Location
	}{
		{"flattened numbers", `{"id":1,"latitude":43.6,"longitude":-79.3}`, &Location{43.6, -79.3}},
		{"flattened strings", `{"id":1,"latitude":"43.6","longitude":"-79.3"}`, &Location{43.6, -79.3}},
		{"nested", `{"id":1,"location":{"latitude":1.5,"longitude":2.5}}`, &Location{1.5, 2.5}},
		{"flattened wins over nested", `{"id":1,"latitude":1,"longitude":2,"location":{"latitude":3,"longitude":4}}`, &Location{1, 2}},
		{"only one coordinate", `{"id":1,"latitude":1}`, nil},
		{"none", `{"id":1}`, nil},
	}

	for _, c := range cases {
		contact, err := decodeContact(strings.NewReader(c.body))
		require.Nil(t, err, c.description)
		assert.Equal(t, c.expected, contact.Location, c.description)
	}
}

func TestDecodeContactImage(t *testing.T) {
	contact, err := decodeContact(strings.NewReader(
		`{"id":1,"email":"jo@example.com","image":"old.jpg","profilePicture":"https://cdn/new.jpg"}`))
	require.Nil(t, err)
	assert.Equal(t, "https://cdn/new.jpg", contact.Image)
	assert.Equal(t, "jo@example.com", contact.Email)

	contact, err = decodeContact(strings.NewReader(`{"id":1,"image":"old.jpg","email":null}`))
	require.Nil(t, err)
	assert.Equal(t, "old.jpg", contact.Image)
	assert.Equal(t, "", contact.Email)
}

func TestDecodeContacts(t *testing.T) {
	for _, body := range []string{"", "null", "[]"} {
		list, err := decodeContacts(strings.NewReader(body))
		require.Nil(t, err, "body %q", body)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	}

	list, err := decodeContacts(strings.NewReader(`[{"id":1,"name":"Jo","phone":"1"},{"id":2,"name":"Ana","phone":"2"}]`))
	require.Nil(t, err)
	assert.Len(t, list, 2)

	_, err = decodeContacts(strings.NewReader(`{"message":"nope"}`))
	assert.NotNil(t, err)
}

func TestFormFields(t *testing.T) {
	fields := formFields(Contact{ID: 9, Name: "Jo", Phone: "123", IsEmployee: true, Location: &Location{43.6, -79.3}})
	assert.Equal(t, []formField{
		{"name", "Jo"},
		{"phone", "123"},
		{"contactType", "employee"},
		{"latitude", "43.6"},
		{"longitude", "-79.3"},
	}, fields)

	fields = formFields(Contact{Name: "Jo", Phone: "123", Email: "jo@example.com"})
	assert.Equal(t, []formField{
		{"name", "Jo"},
		{"phone", "123"},
		{"email", "jo@example.com"},
		{"contactType", "client"},
	}, fields)
}

func TestEncodeMultipart(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "jo.png")
	require.Nil(t, os.WriteFile(imagePath, []byte("image-bytes"), 0600))

	body, contentType, err := encodeMultipart(Contact{Name: "Jo", Phone: "123"}, "file://"+imagePath)
	require.Nil(t, err)

	_, params, err := mime.ParseMediaType(contentType)
	require.Nil(t, err)

	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(1 << 20)
	require.Nil(t, err)

	assert.Equal(t, []string{"Jo"}, form.Value["name"])
	assert.Equal(t, []string{"client"}, form.Value["contactType"])
	assert.Nil(t, form.Value["id"])

	require.Len(t, form.File["file"], 1)
	header := form.File["file"][0]
	assert.Equal(t, "profile.jpg", header.Filename)
	assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))

	f, err := header.Open()
	require.Nil(t, err)
	defer f.Close()
	data, _ := ioutil.ReadAll(f)
	assert.Equal(t, "image-bytes", string(data))

	_, _, err = encodeMultipart(Contact{Name: "Jo", Phone: "123"}, filepath.Join(t.TempDir(), "missing.jpg"))
	assert.NotNil(t, err, "An unreadable image should fail before sending")
}

func TestLocalImagePath(t *testing.T) {
	cases := []struct {
		uri     string
		path    string
		isLocal bool
	}{
		{"", "", false},
		{"file:///tmp/a.jpg", "/tmp/a.jpg", true},
		{"/tmp/a.jpg", "/tmp/a.jpg", true},
		{"https://cdn.example.com/a.jpg", "", false},
		{"content://media/1", "", false},
	}

	for _, c := range cases {
		path, ok := localImagePath(c.uri)
		assert.Equal(t, c.isLocal, ok, c.uri)
		assert.Equal(t, c.path, path, c.uri)
	}
}
