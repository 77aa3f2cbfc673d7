package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

const maxUploadSize = 10 << 20

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// contactForm is a create/update request after merging with the stored record
type contactForm struct {
	Name        string `validate:"required"`
	Phone       string `validate:"required"`
	Email       string `validate:"omitempty,email"`
	ContactType string `validate:"contact_type"`
	Latitude    *float64
	Longitude   *float64
}

func (s *Server) register(rw http.ResponseWriter, r *http.Request) {
	data := registerRequest{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(rw, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.validate.Struct(data); err != nil {
		writeError(rw, validationMessages(err), http.StatusBadRequest)
		return
	}

	passwordHash, err := hashPassword(data.Password, s.PasswordCost)
	if err != nil {
		s.logg.Error(err)
		writeError(rw, "unable to register user", http.StatusInternalServerError)
		return
	}

	u, err := s.data.createUser(data.Name, data.Email, passwordHash)
	if err != nil {
		writeError(rw, err.Error(), http.StatusConflict)
		return
	}

	writeJSON(rw, map[string]interface{}{"id": u.ID, "name": u.Name, "email": u.Email}, http.StatusCreated)
}

func (s *Server) logIn(rw http.ResponseWriter, r *http.Request) {
	data := loginRequest{}
	json.NewDecoder(r.Body).Decode(&data)

	u, err := s.data.findUserByEmail(data.Email)
	if err != nil || !checkPasswordHash(data.Password, u.PasswordHash) {
		writeError(rw, "email/password is invalid", http.StatusUnauthorized)
		return
	}

	token, err := s.encodeJWT(u, time.Now())
	if err != nil {
		s.logg.Error(err)
		writeError(rw, "unable to sign token", http.StatusInternalServerError)
		return
	}

	writeJSON(rw, map[string]string{"accessToken": token}, http.StatusOK)
}

func (s *Server) listContacts(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, s.data.listContacts(requestUserID(r)), http.StatusOK)
}

func (s *Server) findContact(rw http.ResponseWriter, r *http.Request) {
	c, err := s.data.findContact(requestUserID(r), contactID(r))
	if err != nil {
		writeError(rw, "Contact not found", http.StatusNotFound)
		return
	}

	writeJSON(rw, c, http.StatusOK)
}

// searchContacts matches a case insensitive substring of exactly one field
func (s *Server) searchContacts(rw http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var field, value string
	for _, key := range []string{"name", "phone", "email"} {
		if query.Get(key) != "" {
			field, value = key, strings.ToLower(query.Get(key))
			break
		}
	}

	if field == "" {
		writeError(rw, []string{"one of name, phone or email should not be empty"}, http.StatusBadRequest)
		return
	}

	result := []contact{}
	for _, c := range s.data.listContacts(requestUserID(r)) {
		candidate := ""
		switch field {
		case "name":
			candidate = c.Name
		case "phone":
			candidate = c.Phone
		case "email":
			if c.Email != nil {
				candidate = *c.Email
			}
		}

		if strings.Contains(strings.ToLower(candidate), value) {
			result = append(result, c)
		}
	}

	writeJSON(rw, result, http.StatusOK)
}

func (s *Server) createContact(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(rw, "request must be multipart/form-data", http.StatusBadRequest)
		return
	}

	form, errs := s.mergeForm(r, contactForm{})
	if errs != nil {
		writeError(rw, errs, http.StatusBadRequest)
		return
	}

	image, err := readUpload(r)
	if err != nil {
		writeError(rw, err.Error(), http.StatusBadRequest)
		return
	}

	c := contact{}
	applyForm(&c, form)

	created := s.data.createContact(requestUserID(r), c, s.upload(r, image))

	writeJSON(rw, created, http.StatusCreated)
}

func (s *Server) updateContact(rw http.ResponseWriter, r *http.Request) {
	userID, id := requestUserID(r), contactID(r)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(rw, "request must be multipart/form-data", http.StatusBadRequest)
		return
	}

	existing, err := s.data.findContact(userID, id)
	if err != nil {
		writeError(rw, "Contact not found", http.StatusNotFound)
		return
	}

	form, errs := s.mergeForm(r, formFromContact(existing))
	if errs != nil {
		writeError(rw, errs, http.StatusBadRequest)
		return
	}

	image, err := readUpload(r)
	if err != nil {
		writeError(rw, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := s.data.updateContact(userID, id, func(c *contact) {
		applyForm(c, form)
	}, s.upload(r, image))
	if err != nil {
		writeError(rw, "Contact not found", http.StatusNotFound)
		return
	}

	writeJSON(rw, updated, http.StatusOK)
}

func (s *Server) deleteContact(rw http.ResponseWriter, r *http.Request) {
	if err := s.data.deleteContact(requestUserID(r), contactID(r)); err != nil {
		writeError(rw, "Contact not found", http.StatusNotFound)
		return
	}

	writeJSON(rw, map[string]string{"message": "Contact deleted successfully"}, http.StatusOK)
}

func (s *Server) findUpload(rw http.ResponseWriter, r *http.Request) {
	data, ok := s.data.findUpload(mux.Vars(r)["name"])
	if !ok {
		writeError(rw, "file not found", http.StatusNotFound)
		return
	}

	rw.Header().Set("Content-Type", "image/jpeg")
	rw.WriteHeader(http.StatusOK)
	rw.Write(data)
}

// mergeForm overlays the fields present in the request on base and validates the result
func (s *Server) mergeForm(r *http.Request, base contactForm) (contactForm, []string) {
	form := base
	values := r.MultipartForm

	if name, ok := formValue(values, "name"); ok {
		form.Name = name
	}
	if phone, ok := formValue(values, "phone"); ok {
		form.Phone = phone
	}
	if email, ok := formValue(values, "email"); ok {
		form.Email = email
	}
	if contactType, ok := formValue(values, "contactType"); ok {
		form.ContactType = contactType
	}

	errs := []string{}
	for _, key := range []string{"latitude", "longitude"} {
		raw, ok := formValue(values, key)
		if !ok {
			continue
		}

		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be a number", key))
			continue
		}

		if key == "latitude" {
			form.Latitude = &value
		} else {
			form.Longitude = &value
		}
	}

	if (form.Latitude == nil) != (form.Longitude == nil) {
		errs = append(errs, "latitude and longitude must be sent together")
	}

	if err := s.validate.Struct(form); err != nil {
		errs = append(errs, validationMessages(err)...)
	}

	if len(errs) > 0 {
		return form, errs
	}

	form.ContactType, _ = normalizeContactType(form.ContactType)
	return form, nil
}

// upload links stored images under this server's host, nil when no image was sent
func (s *Server) upload(r *http.Request, image []byte) *upload {
	if image == nil {
		return nil
	}

	return &upload{
		data: image,
		url: func(name string) string {
			return fmt.Sprintf("http://%s%s/%s", r.Host, uploadsPath, name)
		},
	}
}

func formFromContact(c contact) contactForm {
	form := contactForm{
		Name:        c.Name,
		Phone:       c.Phone,
		ContactType: c.ContactType,
		Latitude:    c.Latitude,
		Longitude:   c.Longitude,
	}
	if c.Email != nil {
		form.Email = *c.Email
	}
	return form
}

func applyForm(c *contact, form contactForm) {
	c.Name = form.Name
	c.Phone = form.Phone
	c.ContactType = form.ContactType
	c.Latitude = form.Latitude
	c.Longitude = form.Longitude

	c.Email = nil
	if form.Email != "" {
		c.Email = stringPtr(form.Email)
	}
}

// readUpload returns the 'file' part, or nil when none was sent
func readUpload(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read file: %v", err)
	}
	defer file.Close()

	return ioutil.ReadAll(file)
}

func contactID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}
