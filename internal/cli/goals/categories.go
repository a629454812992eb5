package goals

import (
	"context"
	"fmt"
	"io"

	"github.com/julianstephens/goaltrack/internal/cli"
	"github.com/julianstephens/goaltrack/internal/derive"
	"github.com/julianstephens/goaltrack/internal/forms"
	"github.com/julianstephens/goaltrack/internal/models"
)

// CategoriesCmd groups category commands.
type CategoriesCmd struct {
	List   CategoryListCmd   `cmd:"" default:"1" help:"List categories."`
	Add    CategoryAddCmd    `cmd:"" help:"Create a category."`
	Rename CategoryRenameCmd `cmd:"" help:"Rename a category."`
	Delete CategoryDeleteCmd `cmd:"" help:"Delete a category and its goals."`
}

// CategorySummary is a category with its goal count.
type CategorySummary struct {
	models.Category `yaml:",inline"`
	Goals           int `json:"goals" yaml:"goals"`
}

// CategoryListCmd lists categories.
type CategoryListCmd struct {
	ShowIDs bool `help:"Show category IDs." name:"show-ids"`
}

func (cmd *CategoryListCmd) Run(ctx *cli.Context) error {
	ov, err := ctx.LoadOverview(context.Background())
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	for _, g := range derive.QualifyingGoals(ov.Goals) {
		counts[g.CategoryID]++
	}
	summaries := make([]CategorySummary, 0, len(ov.Categories))
	for _, c := range ov.Categories {
		summaries = append(summaries, CategorySummary{Category: c, Goals: counts[c.ID]})
	}

	return ctx.Render(summaries, func(w io.Writer) error {
		if len(summaries) == 0 {
			fmt.Fprintln(w, "No categories yet. Add one with 'goaltrack categories add <name>'.")
			return nil
		}
		fmt.Fprintln(w, "Categories:")
		for _, s := range summaries {
			idStr := ""
			if cmd.ShowIDs {
				idStr = fmt.Sprintf(" (ID: %s)", s.ID)
			}
			fmt.Fprintf(w, "  %s%s - %d %s\n", s.Name, idStr, s.Goals, plural(s.Goals, "goal", "goals"))
		}
		return nil
	})
}

// CategoryAddCmd creates a category.
type CategoryAddCmd struct {
	Name string `arg:"" optional:"" help:"Category name (prompted when omitted)."`
}

func (cmd *CategoryAddCmd) Run(ctx *cli.Context) error {
	name := cmd.Name
	if name == "" {
		fm := &forms.CategoryFormModel{}
		if err := forms.NewCategoryForm(fm, "New category").Run(); err != nil {
			return err
		}
		name = fm.Name
	}

	bg := context.Background()
	editor, err := ctx.CategoryEditor(bg)
	if err != nil {
		return err
	}
	pending, err := editor.BeginCreate(name)
	if err != nil {
		return err
	}
	if err := pending.Execute(bg); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Created category %q\n", name)
	return nil
}

// CategoryRenameCmd renames a category.
type CategoryRenameCmd struct {
	Category string `arg:"" help:"Category ID or name."`
	Name     string `arg:"" optional:"" help:"New name (prompted when omitted)."`
}

func (cmd *CategoryRenameCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	ov, err := ctx.LoadOverview(bg)
	if err != nil {
		return err
	}
	cat, err := cli.FindCategory(ov.Categories, cmd.Category)
	if err != nil {
		return err
	}

	name := cmd.Name
	if name == "" {
		fm := &forms.CategoryFormModel{Name: cat.Name}
		if err := forms.NewCategoryForm(fm, "Rename category").Run(); err != nil {
			return err
		}
		name = fm.Name
	}

	editor, err := ctx.CategoryEditor(bg)
	if err != nil {
		return err
	}
	pending, err := editor.BeginRename(cat, name)
	if err != nil {
		return err
	}
	if err := pending.Execute(bg); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Renamed %q to %q\n", cat.Name, name)
	return nil
}

// CategoryDeleteCmd deletes a category. The goals service deletes its goals too.
type CategoryDeleteCmd struct {
	Category string `arg:"" help:"Category ID or name."`
	Yes      bool   `short:"y" help:"Delete without confirmation."`
}

func (cmd *CategoryDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	ov, err := ctx.LoadOverview(bg)
	if err != nil {
		return err
	}
	cat, err := cli.FindCategory(ov.Categories, cmd.Category)
	if err != nil {
		return err
	}

	n := len(derive.GoalsInCategory(ov.Groups(), cat.ID))
	ok, err := ctx.Confirm(cmd.Yes,
		fmt.Sprintf("Delete category %q?", cat.Name),
		fmt.Sprintf("Its %d %s will be deleted too.", n, plural(n, "goal", "goals")))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(ctx.Out, "⊘ Cancelled")
		return nil
	}

	editor, err := ctx.CategoryEditor(bg)
	if err != nil {
		return err
	}
	pending, err := editor.BeginDelete(cat)
	if err != nil {
		return err
	}
	if err := pending.Execute(bg); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Deleted category: %s (ID: %s)\n", cat.Name, cat.ID)
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
