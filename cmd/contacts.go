package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Daskott/kontakt/contacts"
	"github.com/spf13/cobra"
)

var (
	groupedArg  bool
	searchByArg string
)

// contactFlags holds the values of one command's contact flags
type contactFlags struct {
	name       string
	phone      string
	email      string
	image      string
	isEmployee bool
	latitude   float64
	longitude  float64
}

func createContactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contacts",
		Aliases: []string{"c"},
		Short:   "List, show, add, edit, delete and search contacts",
	}

	cmd.AddCommand(
		createListCmd(),
		createShowCmd(),
		createAddCmd(),
		createEditCmd(),
		createDeleteCmd(),
		createSearchCmd(),
	)

	return cmd
}

func createListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.load(cmd.Context(), cmd); err != nil {
				return err
			}

			directory := a.repo.List()
			if len(directory) == 0 {
				cmd.Println("No contacts yet, add one with 'kontakt contacts add'")
				return nil
			}

			if groupedArg {
				printSections(cmd, contacts.Group(directory))
				return nil
			}

			printContacts(cmd, directory)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&groupedArg, "grouped", "g", false, "group contacts by the first letter of their name")

	return cmd
}

func createShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Fetch a contact from the backend and show its details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			contact, err := a.repo.GetByID(cmd.Context(), id)
			if contacts.IsAuthError(err) {
				return loginRequired(err)
			}
			if err != nil {
				return formattedError("unable to fetch contact %v: %v", id, err)
			}

			printContactDetails(cmd, *contact)
			return nil
		},
	}
}

func createAddCmd() *cobra.Command {
	var flagArgs *contactFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a contact",
		Long: `Adds a contact. A contact with the same name and phone number as an
existing one is rejected before anything is sent to the backend`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.load(cmd.Context(), cmd); err != nil {
				return err
			}

			draft := contacts.Contact{
				Name:       flagArgs.name,
				Phone:      flagArgs.phone,
				Email:      flagArgs.email,
				IsEmployee: flagArgs.isEmployee,
				Location:   flagArgs.location(cmd, nil),
			}

			created, err := a.repo.Add(cmd.Context(), draft, flagArgs.image)
			if contacts.IsAuthError(err) {
				return loginRequired(err)
			}
			if err != nil {
				return formattedError("contact not added: %v", err)
			}

			cmd.Printf("Contact '%s' added with id %v\n", created.Name, created.ID)
			return nil
		},
	}

	flagArgs = addContactFlags(cmd)
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("phone")

	return cmd
}

func createEditCmd() *cobra.Command {
	var flagArgs *contactFlags

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a contact, only the flags provided are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.load(cmd.Context(), cmd); err != nil {
				return err
			}

			contact, ok := a.repo.Contact(id)
			if !ok {
				return formattedError("no contact with id %v", id)
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				contact.Name = flagArgs.name
			}
			if flags.Changed("phone") {
				contact.Phone = flagArgs.phone
			}
			if flags.Changed("email") {
				contact.Email = flagArgs.email
			}
			if flags.Changed("employee") {
				contact.IsEmployee = flagArgs.isEmployee
			}
			contact.Location = flagArgs.location(cmd, contact.Location)

			image := ""
			if flags.Changed("image") {
				image = flagArgs.image
			}

			_, err = a.repo.Update(cmd.Context(), contact, image)
			if contacts.IsAuthError(err) {
				return loginRequired(err)
			}
			if err != nil {
				return formattedError("contact not updated: %v", err)
			}

			return nil
		},
	}

	flagArgs = addContactFlags(cmd)

	return cmd
}

func createDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.load(cmd.Context(), cmd); err != nil {
				return err
			}

			err = a.repo.Delete(cmd.Context(), id)
			if contacts.IsAuthError(err) {
				return loginRequired(err)
			}
			if err != nil {
				return formattedError("contact %v not deleted: %v", id, err)
			}

			cmd.Printf("Contact %v deleted\n", id)
			return nil
		},
	}
}

func createSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search contacts on the backend by name, phone or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := contacts.ParseField(searchByArg)
			if err != nil {
				return formattedError("%v", err)
			}

			query := strings.TrimSpace(args[0])
			if query == "" {
				return formattedError("search query cannot be empty")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			index := a.searchIndex()
			if err := index.Search(cmd.Context(), query, field); err != nil {
				return loginRequired(err)
			}

			results := index.Results()
			if len(results) == 0 {
				cmd.Printf("No contacts found with %s matching '%s'\n", field, query)
				return nil
			}

			printContacts(cmd, results)
			return nil
		},
	}

	cmd.Flags().StringVarP(&searchByArg, "by", "b", string(contacts.FieldName), "field to search: name, phone, or email")

	return cmd
}

func addContactFlags(cmd *cobra.Command) *contactFlags {
	args := &contactFlags{}

	cmd.Flags().StringVarP(&args.name, "name", "n", "", "contact name")
	cmd.Flags().StringVarP(&args.phone, "phone", "p", "", "contact phone number")
	cmd.Flags().StringVarP(&args.email, "email", "e", "", "contact email")
	cmd.Flags().BoolVar(&args.isEmployee, "employee", false, "contact is an employee (default is client)")
	cmd.Flags().Float64Var(&args.latitude, "lat", 0, "latitude of the contact's location")
	cmd.Flags().Float64Var(&args.longitude, "lng", 0, "longitude of the contact's location")
	cmd.Flags().StringVarP(&args.image, "image", "i", "", "path to a JPEG profile picture")

	return args
}

// location returns current unless --lat or --lng was provided
func (args *contactFlags) location(cmd *cobra.Command, current *contacts.Location) *contacts.Location {
	flags := cmd.Flags()
	if !flags.Changed("lat") && !flags.Changed("lng") {
		return current
	}

	location := contacts.Location{}
	if current != nil {
		location = *current
	}
	if flags.Changed("lat") {
		location.Latitude = args.latitude
	}
	if flags.Changed("lng") {
		location.Longitude = args.longitude
	}

	return &location
}

func parseID(value string) (int, error) {
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, formattedError("invalid contact id %q", value)
	}
	return id, nil
}

func printContacts(cmd *cobra.Command, list []contacts.Contact) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPHONE\tEMAIL\tROLE")
	for _, contact := range list {
		fmt.Fprintf(w, "%v\t%s\t%s\t%s\t%s\n", contact.ID, contact.Name, contact.Phone, contact.Email, contact.Role())
	}
	w.Flush()
}

func printSections(cmd *cobra.Command, sections []contacts.Section) {
	for _, section := range sections {
		title := section.Title
		if title == "" {
			title = "#"
		}

		cmd.Println(yellow(title))
		for _, contact := range section.Contacts {
			cmd.Printf("  %s  %s (%s)\n", contact.Name, contact.Phone, contact.Role())
		}
	}
}

func printContactDetails(cmd *cobra.Command, contact contacts.Contact) {
	cmd.Printf("ID:       %v\n", contact.ID)
	cmd.Printf("Name:     %s\n", contact.Name)
	cmd.Printf("Phone:    %s\n", contact.Phone)
	cmd.Printf("Email:    %s\n", contact.Email)
	cmd.Printf("Role:     %s\n", contact.Role())
	if contact.Location != nil {
		cmd.Printf("Location: %v, %v\n", contact.Location.Latitude, contact.Location.Longitude)
	}
	if contact.Image != "" {
		cmd.Printf("Image:    %s\n", contact.Image)
	}
}
