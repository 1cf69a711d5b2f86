package habits

import (
	"fmt"

	"github.com/julianstephens/habithero/internal/catalog"
	"github.com/julianstephens/habithero/internal/cli"
)

type CategoriesCmd struct {
	Name string `arg:"" optional:"" help:"Show the suggested habits of one category."`
}

func (c *CategoriesCmd) Run(ctx *cli.Context) error {
	cat, err := catalog.Load()
	if err != nil {
		return err
	}

	if c.Name == "" {
		ctx.Println(cli.TitleStyle.Render("Categories"))
		for _, category := range cat.Categories {
			if category.Custom {
				ctx.Printf("  %s %s\n", category.Name, cli.MutedStyle.Render("(name your own habit)"))
				continue
			}
			ctx.Printf("  %s %s\n", category.Name, cli.MutedStyle.Render(fmt.Sprintf("(%d suggestions)", len(category.Habits))))
		}
		return nil
	}

	category, ok := cat.Category(c.Name)
	if !ok {
		return fmt.Errorf("unknown category %q", c.Name)
	}
	ctx.Println(cli.TitleStyle.Render(category.Name))
	if len(category.Habits) == 0 {
		ctx.Println("  No suggestions. Add your own with 'habithero habit add'.")
		return nil
	}
	for _, name := range category.Habits {
		ctx.Printf("  - %s\n", name)
	}
	return nil
}
