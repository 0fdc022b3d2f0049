package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/edgeplane/corectl/internal/category"
	"github.com/spf13/cobra"
)

var (
	categoryDescription    string
	categoryValueFile      string
	categoryKeepOriginal   bool
	categoryDisplayName    string
	categoryTreeRoots      bool
	categoryTreeNoChildren bool
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage configuration categories",
}

var categoryCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create or merge-update a category from a JSON item-spec file",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		name := args[0]
		raw, err := os.ReadFile(categoryValueFile)
		if err != nil {
			fail("read value file: %v", err)
		}
		var value map[string]category.RawItem
		if err := json.Unmarshal(raw, &value); err != nil {
			fail("parse value file: %v", err)
		}

		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		if err := a.store.CreateCategory(ctx, name, categoryDescription, value, categoryKeepOriginal, categoryDisplayName); err != nil {
			fail("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]any{"name": name, "created": true})
			return
		}
		fmt.Println(name)
	},
}

var categoryGetCmd = &cobra.Command{
	Use:   "get <name> [item]",
	Short: "Read a category's items, or a single item",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		if len(args) == 2 {
			item, err := a.store.GetCategoryItem(ctx, args[0], args[1])
			if err != nil {
				fail("%v", err)
			}
			if item == nil {
				fail("item %q not found in category %q", args[1], args[0])
			}
			outputJSON(item)
			return
		}

		items, err := a.store.GetCategoryAllItems(ctx, args[0])
		if err != nil {
			fail("%v", err)
		}
		outputJSON(items)
	},
}

var categorySetCmd = &cobra.Command{
	Use:   "set <name> <item> <value>",
	Short: "Set one item's value entry",
	Args:  cobra.ExactArgs(3),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		if err := a.store.SetCategoryItemValueEntry(ctx, args[0], args[1], args[2]); err != nil {
			fail("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]any{"name": args[0], "item": args[1], "value": args[2]})
			return
		}
		fmt.Println("ok")
	},
}

var categoryBulkCmd = &cobra.Command{
	Use:   "bulk <name>",
	Short: "Apply a batch of item value updates from a JSON {item: value} file",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		raw, err := os.ReadFile(categoryValueFile)
		if err != nil {
			fail("read value file: %v", err)
		}
		var patch map[string]string
		if err := json.Unmarshal(raw, &patch); err != nil {
			fail("parse value file: %v", err)
		}
		updates := make([]category.BulkItemUpdate, 0, len(patch))
		for item, v := range patch {
			updates = append(updates, category.BulkItemUpdate{Item: item, NewValue: v})
		}

		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		if err := a.store.UpdateConfigurationItemBulk(ctx, args[0], updates); err != nil {
			fail("%v", err)
		}
		fmt.Println("ok")
	},
}

var categoryChildrenCmd = &cobra.Command{
	Use:   "children <parent>",
	Short: "List a category's direct children",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		kids, err := a.store.Children(ctx, args[0])
		if err != nil {
			fail("%v", err)
		}
		outputJSON(kids)
	},
}

var categoryTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the category forest rooted at roots or leaves",
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		nodes, err := a.store.Tree(ctx, categoryTreeRoots, !categoryTreeNoChildren)
		if err != nil {
			fail("%v", err)
		}
		outputJSON(nodes)
	},
}

var categoryCreateChildCmd = &cobra.Command{
	Use:   "create-child <parent> <child...>",
	Short: "Link one or more existing categories as children of parent",
	Args:  cobra.MinimumNArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		kids, err := a.store.CreateChildCategory(ctx, args[0], args[1:])
		if err != nil {
			fail("%v", err)
		}
		outputJSON(kids)
	},
}

var categoryDeleteChildCmd = &cobra.Command{
	Use:   "delete-child <parent> <child>",
	Short: "Remove a single parent/child edge",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		kids, err := a.store.DeleteChildCategory(ctx, args[0], args[1])
		if err != nil {
			fail("%v", err)
		}
		outputJSON(kids)
	},
}

var categoryDeleteParentCmd = &cobra.Command{
	Use:   "delete-parent <parent>",
	Short: "Remove every child edge where parent is the parent",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		if err := a.store.DeleteParentCategory(ctx, args[0]); err != nil {
			fail("%v", err)
		}
		fmt.Println("ok")
	},
}

var categoryDeleteRecursiveCmd = &cobra.Command{
	Use:   "delete-recursive <name>",
	Short: "Delete a category and its descendants, refusing reserved subtrees",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		if err := a.store.DeleteCategoryAndChildrenRecursively(ctx, args[0]); err != nil {
			fail("%v", err)
		}
		fmt.Println("ok")
	},
}

func init() {
	categoryCreateCmd.Flags().StringVar(&categoryDescription, "description", "", "Category description")
	categoryCreateCmd.Flags().StringVar(&categoryValueFile, "value-file", "", "JSON file mapping item name to item-spec")
	categoryCreateCmd.Flags().BoolVar(&categoryKeepOriginal, "keep-original-items", false, "Preserve previously stored items not present in value-file")
	categoryCreateCmd.Flags().StringVar(&categoryDisplayName, "display-name", "", "Display name (defaults to the category name)")
	_ = categoryCreateCmd.MarkFlagRequired("value-file")

	categoryBulkCmd.Flags().StringVar(&categoryValueFile, "value-file", "", "JSON file mapping item name to new value")
	_ = categoryBulkCmd.MarkFlagRequired("value-file")

	categoryTreeCmd.Flags().BoolVar(&categoryTreeRoots, "roots", true, "Root the forest at categories with no parent (false: at leaves)")
	categoryTreeCmd.Flags().BoolVar(&categoryTreeNoChildren, "no-children", false, "Omit the children arrays, listing only the chosen partition")

	categoryCmd.AddCommand(categoryCreateCmd, categoryGetCmd, categorySetCmd, categoryBulkCmd,
		categoryChildrenCmd, categoryTreeCmd, categoryCreateChildCmd, categoryDeleteChildCmd,
		categoryDeleteParentCmd, categoryDeleteRecursiveCmd)
	rootCmd.AddCommand(categoryCmd)
}
