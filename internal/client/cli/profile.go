package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/travelbuddy/internal/rpc"
)

func (a *App) ShowProfile(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.requestTimeout())
	defer cancel()

	p, err := a.api.GetProfile(ctx)
	if err != nil {
		return err
	}
	if p == nil {
		fmt.Fprintln(a.out, "No profile yet, use 'editprofile' to create one")
		return nil
	}

	printProfile(a, p)
	return nil
}

func printProfile(a *App, p *rpc.Profile) {
	fmt.Fprintf(a.out, "Name:          %s\n", p.FullName)
	fmt.Fprintf(a.out, "Date of birth: %s\n", p.DateOfBirth)
	if p.Gender != "" {
		fmt.Fprintf(a.out, "Gender:        %s\n", p.Gender)
	}
	if addr := formatAddress(p.Address); addr != "" {
		fmt.Fprintf(a.out, "Address:       %s\n", addr)
	}
	if len(p.TravelInterests) > 0 {
		fmt.Fprintf(a.out, "Interests:     %s\n", strings.Join(p.TravelInterests, ", "))
	}
	if p.AboutMe != "" {
		fmt.Fprintf(a.out, "About me:\n%s\n", p.AboutMe)
	}

	verified := "no"
	if p.IsVerified {
		verified = "yes"
		if p.VerifiedAt != nil {
			verified = "yes, " + p.VerifiedAt.Local().Format("2006-01-02 15:04")
		}
	}
	fmt.Fprintf(a.out, "Verified:      %s\n", verified)
}

func formatAddress(addr rpc.Address) string {
	parts := make([]string, 0, 4)
	for _, s := range []string{addr.Street, addr.City, addr.State, addr.Zip} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// prompt asks for a single value, an empty answer keeps current.
func (a *App) prompt(label, current string) (string, error) {
	p := label
	if current != "" {
		p = fmt.Sprintf("%s [%s]", label, current)
	}
	v, err := getSimpleText(a.reader, p, a.out)
	if err != nil {
		return "", err
	}
	if v == "" {
		return current, nil
	}
	return v, nil
}

// EditProfile walks through the profile fields, prefilled with the stored
// values, and saves the result. The server validates the form.
func (a *App) EditProfile(ctx context.Context) error {
	getCtx, cancel := context.WithTimeout(ctx, a.requestTimeout())
	existing, err := a.api.GetProfile(getCtx)
	cancel()
	if err != nil {
		return err
	}

	var form rpc.ProfileForm
	if existing != nil {
		form = existing.ProfileForm
	}

	steps := []struct {
		label string
		field *string
	}{
		{"Full name", &form.FullName},
		{"Date of birth (" + rpc.DateLayout + ")", &form.DateOfBirth},
		{"Gender", &form.Gender},
		{"Street", &form.Address.Street},
		{"City", &form.Address.City},
		{"State", &form.Address.State},
		{"Zip", &form.Address.Zip},
	}
	for _, s := range steps {
		if *s.field, err = a.prompt(s.label, *s.field); err != nil {
			return err
		}
	}

	about, err := getMultiline(a.reader, "About me", a.out)
	if err != nil {
		return err
	}
	if about != "" {
		form.AboutMe = about
	}

	interests, err := getList(a.reader, "Travel interests ["+strings.Join(form.TravelInterests, ", ")+"]", a.out)
	if err != nil {
		return err
	}
	if len(interests) > 0 {
		form.TravelInterests = interests
	}

	if a.pendingProfileImage != "" {
		form.ProfileImageRef = a.pendingProfileImage
	}

	saveCtx, cancel := context.WithTimeout(ctx, a.requestTimeout())
	defer cancel()

	saved, err := a.api.SaveProfile(saveCtx, form)
	if err != nil {
		return err
	}
	a.pendingProfileImage = ""

	fmt.Fprintln(a.out, "Profile saved")
	printProfile(a, saved)
	return nil
}
