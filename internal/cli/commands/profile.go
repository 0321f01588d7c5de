package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rechargex-dev/rechargex/internal/cli/client"
	"github.com/rechargex-dev/rechargex/internal/cli/forms"
	"github.com/rechargex-dev/rechargex/internal/cli/routes"
	"github.com/rechargex-dev/rechargex/internal/cli/theme"
)

// NewProfileCmd creates the profile command and its subcommands
func NewProfileCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show and edit your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.Profile, env.renderProfile)
		},
	}

	cmd.AddCommand(newProfileUpdateCmd(env))
	cmd.AddCommand(newProfilePhotoCmd(env))
	cmd.AddCommand(newProfileFeedbackCmd(env))

	return withRoute(cmd, routes.Profile)
}

func (e *Env) renderProfile(ctx context.Context) error {
	user, err := e.currentProfile(ctx)
	if err != nil {
		return err
	}

	out := e.App.Out
	fmt.Fprintln(out, theme.Title.Render(user.Name))
	fmt.Fprintf(out, "Email:   %s\n", user.Email)
	fmt.Fprintf(out, "Phone:   %s\n", user.Phone)
	fmt.Fprintf(out, "Role:    %s\n", user.Role)
	if user.ProfilePhoto != "" {
		fmt.Fprintf(out, "Photo:   %s\n", user.ProfilePhoto)
	}
	if !user.CreatedAt.IsZero() {
		fmt.Fprintf(out, "Member since %s\n", user.CreatedAt.Local().Format("January 2006"))
	}
	return nil
}

func newProfileUpdateCmd(env *Env) *cobra.Command {
	var name, email, phone string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update your name, email or phone",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.Profile, func(ctx context.Context) error {
				return env.runProfileUpdate(ctx, name, email, phone)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&email, "email", "", "New email address")
	cmd.Flags().StringVar(&phone, "phone", "", "New 10-digit mobile number")

	return cmd
}

func (e *Env) runProfileUpdate(ctx context.Context, name, email, phone string) error {
	current := e.App.Session.Snapshot().Profile
	if current == nil {
		var err error
		if current, err = e.currentProfile(ctx); err != nil {
			return err
		}
	}

	// Unset fields keep their current value so the whole form validates
	form := forms.ProfileForm{Name: current.Name, Email: current.Email, Phone: current.Phone}
	if name != "" {
		form.Name = name
	}
	if email != "" {
		form.Email = email
	}
	if phone != "" {
		form.Phone = phone
	}
	if err := forms.Validate(&form); err != nil {
		return err
	}

	user, err := e.App.Session.UpdateProfile(ctx, client.ProfileUpdate{
		Name:  form.Name,
		Email: form.Email,
		Phone: form.Phone,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(e.App.Out, theme.Success.Render("✓ Profile updated successfully"))
	fmt.Fprintf(e.App.Out, "%s <%s> %s\n", user.Name, user.Email, user.Phone)
	return nil
}

func newProfilePhotoCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "photo <file>",
		Short: "Upload a new profile photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.Profile, func(ctx context.Context) error {
				return env.runProfilePhoto(ctx, args[0])
			})
		},
	}
}

func (e *Env) runProfilePhoto(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open photo: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}
	if err := forms.ValidatePhotoSize(info.Size()); err != nil {
		return err
	}

	user, err := e.App.Session.UploadPhoto(ctx, filepath.Base(path), f)
	if err != nil {
		return err
	}

	fmt.Fprintln(e.App.Out, theme.Success.Render("✓ Profile photo updated"))
	if user != nil && user.ProfilePhoto != "" {
		fmt.Fprintf(e.App.Out, "Photo: %s\n", user.ProfilePhoto)
	}
	return nil
}

func newProfileFeedbackCmd(env *Env) *cobra.Command {
	var form forms.FeedbackForm

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Share your experience with RechargeX",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.Profile, func(ctx context.Context) error {
				return env.runFeedback(ctx, form)
			})
		},
	}

	cmd.Flags().StringVarP(&form.Feedback, "message", "m", "", "Your feedback")
	cmd.Flags().IntVar(&form.Rating, "rating", 5, "Rating from 1 to 5")

	return cmd
}

func (e *Env) runFeedback(ctx context.Context, form forms.FeedbackForm) error {
	if form.Feedback == "" && e.App.Interactive {
		text, err := e.Prompt.Input("Feedback", nil)
		if err != nil {
			return err
		}
		form.Feedback = text
	}
	if err := forms.Validate(&form); err != nil {
		return err
	}

	snap := e.App.Session.Snapshot()
	in := client.FeedbackInput{
		UserID:   e.userID(),
		Feedback: form.Feedback,
		Rating:   form.Rating,
	}
	if snap.Profile != nil {
		in.Name = snap.Profile.Name
		in.ProfilePhoto = snap.Profile.ProfilePhoto
	}

	if err := e.App.API.SubmitFeedback(ctx, in); err != nil {
		return fmt.Errorf("failed to submit feedback: %w", err)
	}

	fmt.Fprintln(e.App.Out, theme.Success.Render("✓ Thank you! Your feedback will appear once approved."))
	return nil
}
