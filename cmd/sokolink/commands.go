package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sokolink/sokolink/internal/config"
	"github.com/sokolink/sokolink/internal/market"
)

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for local businesses and community items",
	Long: `Search for local businesses and community items.

Examples:
  sokolink search "coffee shop" --location Nairobi
  sokolink search "phone repair" --location Mombasa`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		location, _ := cmd.Flags().GetString("location")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/search", map[string]string{
			"query":    query,
			"location": location,
		})
		if err != nil {
			return err
		}

		var result struct {
			Businesses []market.Business      `json:"businesses"`
			Items      []market.CommunityItem `json:"items"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Businesses) == 0 && len(result.Items) == 0 {
			fmt.Println("No results found.")
			return nil
		}

		if len(result.Businesses) > 0 {
			fmt.Printf("\n%s\n", colorize(colorBold, "Businesses"))
			for _, b := range result.Businesses {
				printBusiness(b)
			}
		}
		if len(result.Items) > 0 {
			fmt.Printf("\n%s\n", colorize(colorBold, "Community items"))
			for _, it := range result.Items {
				printItem(it)
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().String("location", "Nairobi", "area to search in")
}

func printBusiness(b market.Business) {
	fmt.Printf("  %s  %s (%s)\n", colorize(colorCyan, b.Name), b.Address, b.Category)
	details := []string{}
	if b.Phone != "" {
		details = append(details, b.Phone)
	}
	if b.Hours != "" {
		details = append(details, b.Hours)
	}
	if b.Delivery {
		details = append(details, "delivers")
	}
	if b.Negotiable {
		details = append(details, "negotiable")
	}
	if len(details) > 0 {
		fmt.Printf("    %s\n", strings.Join(details, " · "))
	}
}

func printItem(it market.CommunityItem) {
	status := ""
	if it.Status == market.StatusSold {
		status = colorize(colorYellow, " [sold]")
	}
	fmt.Printf("  %s  %s%s\n", colorize(colorCyan, it.Title), it.Price, status)
	fmt.Printf("    %s · %s · %s (%s)\n", it.Condition, it.Category, it.Location, it.SellerName)
	fmt.Printf("    %s\n", colorize(colorBold, "id: ")+it.ID)
}

// --- items ---

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Browse and manage community items",
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Browse all community items",
	RunE: func(cmd *cobra.Command, args []string) error {
		location, _ := cmd.Flags().GetString("location")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/community/browse", map[string]string{"location": location})
		if err != nil {
			return err
		}

		var items []market.CommunityItem
		if err := decodeJSON(resp, &items); err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No items found.")
			return nil
		}
		for _, it := range items {
			printItem(it)
		}
		return nil
	},
}

var itemsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your own items for sale",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/items/mine")
		if err != nil {
			return err
		}

		var items []market.CommunityItem
		if err := decodeJSON(resp, &items); err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("You have no items listed.")
			return nil
		}
		for _, it := range items {
			printItem(it)
		}
		return nil
	},
}

var itemsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "List an item for sale",
	Long: `List an item for sale.

Examples:
  sokolink items add --title "Sofa Set" --price "KES 15,000" --category Furniture
  sokolink items add --title "iPhone 11" --price "KES 30,000" --condition "Used - Like New"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		price, _ := cmd.Flags().GetString("price")
		if title == "" || price == "" {
			return fmt.Errorf("--title and --price are required")
		}

		draft := market.ItemDraft{Title: title, Price: price}
		draft.Description, _ = cmd.Flags().GetString("description")
		draft.Category, _ = cmd.Flags().GetString("category")
		draft.Condition, _ = cmd.Flags().GetString("condition")
		draft.Location, _ = cmd.Flags().GetString("location")
		draft.SellerName, _ = cmd.Flags().GetString("seller")
		draft.Negotiable, _ = cmd.Flags().GetBool("negotiable")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/items", draft)
		if err != nil {
			return err
		}

		var item market.CommunityItem
		if err := decodeJSON(resp, &item); err != nil {
			return err
		}

		printSuccess("Listed %s (%s)", item.Title, item.ID)
		return nil
	},
}

var itemsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of your listings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/items/"+args[0])
		if err != nil {
			return err
		}
		if err := drainResponse(resp); err != nil {
			return err
		}

		printSuccess("Deleted %s", args[0])
		return nil
	},
}

var itemsSoldCmd = &cobra.Command{
	Use:   "sold <id>",
	Short: "Mark one of your listings as sold",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.patch(cmd.Context(), "/items/"+args[0]+"/status", map[string]string{"status": "sold"})
		if err != nil {
			return err
		}
		if err := drainResponse(resp); err != nil {
			return err
		}

		printSuccess("Marked %s as sold", args[0])
		return nil
	},
}

func init() {
	itemsListCmd.Flags().String("location", "Kenya", "area to browse")
	itemsAddCmd.Flags().String("title", "", "item title")
	itemsAddCmd.Flags().String("price", "", "asking price, e.g. 'KES 5,000'")
	itemsAddCmd.Flags().String("description", "", "item description")
	itemsAddCmd.Flags().String("category", "Other", "item category")
	itemsAddCmd.Flags().String("condition", "Used - Good", "item condition")
	itemsAddCmd.Flags().String("location", "", "where the item is located")
	itemsAddCmd.Flags().String("seller", "Me", "name to show as the seller")
	itemsAddCmd.Flags().Bool("negotiable", false, "whether the price is negotiable")

	itemsCmd.AddCommand(itemsListCmd)
	itemsCmd.AddCommand(itemsMineCmd)
	itemsCmd.AddCommand(itemsAddCmd)
	itemsCmd.AddCommand(itemsDeleteCmd)
	itemsCmd.AddCommand(itemsSoldCmd)
}

// --- inbox ---

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "View and answer conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/conversations")
		if err != nil {
			return err
		}

		var convos []market.Conversation
		if err := decodeJSON(resp, &convos); err != nil {
			return err
		}
		if len(convos) == 0 {
			fmt.Println("No conversations yet.")
			return nil
		}

		for _, c := range convos {
			unread := ""
			if !c.IsReadBySeller {
				unread = colorize(colorYellow, " ●")
			}
			fmt.Printf("%s  %s (%d messages)%s\n",
				colorize(colorCyan, c.ID), c.ItemName, len(c.Messages), unread)
			if len(c.Messages) > 0 {
				last := c.Messages[len(c.Messages)-1]
				text := last.Text
				if len(text) > 80 {
					text = text[:80] + "..."
				}
				fmt.Printf("    [%s] %s\n", last.Sender, text)
			}
		}
		return nil
	},
}

var inboxSendCmd = &cobra.Command{
	Use:   "send <item-id> <message>",
	Short: "Message a seller about an item",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		itemName, _ := cmd.Flags().GetString("item-name")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/conversations", map[string]string{
			"itemId":   args[0],
			"itemName": itemName,
			"text":     strings.Join(args[1:], " "),
		})
		if err != nil {
			return err
		}

		var convo market.Conversation
		if err := decodeJSON(resp, &convo); err != nil {
			return err
		}

		printSuccess("Message sent (%d messages in conversation)", len(convo.Messages))
		return nil
	},
}

var inboxReplyCmd = &cobra.Command{
	Use:   "reply <conversation-id> <message>",
	Short: "Reply to a buyer as the seller",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/conversations/"+args[0]+"/reply", map[string]string{
			"text": strings.Join(args[1:], " "),
		})
		if err != nil {
			return err
		}
		if err := drainResponse(resp); err != nil {
			return err
		}

		printSuccess("Reply sent")
		return nil
	},
}

var inboxReadCmd = &cobra.Command{
	Use:   "read <conversation-id>",
	Short: "Mark a conversation as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/conversations/"+args[0]+"/read", map[string]string{"role": role})
		if err != nil {
			return err
		}
		if err := drainResponse(resp); err != nil {
			return err
		}

		printSuccess("Marked read for %s", role)
		return nil
	},
}

func init() {
	inboxSendCmd.Flags().String("item-name", "", "item name shown in the conversation")
	inboxReadCmd.Flags().String("role", "Buyer", "role to mark read for (Buyer or Seller)")
	inboxCmd.AddCommand(inboxSendCmd)
	inboxCmd.AddCommand(inboxReplyCmd)
	inboxCmd.AddCommand(inboxReadCmd)
}

// --- role ---

var roleCmd = &cobra.Command{
	Use:   "role [Buyer|Seller]",
	Short: "Show or switch the active marketplace role",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			resp, err := client.get(cmd.Context(), "/role")
			if err != nil {
				return err
			}
			var result struct {
				Role market.Role `json:"role"`
			}
			if err := decodeJSON(resp, &result); err != nil {
				return err
			}
			fmt.Println(result.Role)
			return nil
		}

		resp, err := client.put(cmd.Context(), "/role", map[string]string{"role": args[0]})
		if err != nil {
			return err
		}
		if err := drainResponse(resp); err != nil {
			return err
		}

		printSuccess("Switched to %s", args[0])
		return nil
	},
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your business profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the business profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/profile")
		if err != nil {
			return err
		}

		var profile any
		if err := decodeJSON(resp, &profile); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Set a business profile field",
	Long: `Set a business profile field.

Fields use the JSON names, e.g. businessName, address, category, phone,
hours, whatsapp, priceRange.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		field, value := args[0], args[1]

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		// The profile is replaced wholesale, so read-modify-write.
		resp, err := client.get(cmd.Context(), "/profile")
		if err != nil {
			return err
		}
		var profile map[string]any
		if err := decodeJSON(resp, &profile); err != nil {
			return err
		}
		if _, ok := profile[field]; !ok {
			return fmt.Errorf("unknown profile field %q", field)
		}
		profile[field] = value

		putResp, err := client.put(cmd.Context(), "/profile", profile)
		if err != nil {
			return err
		}
		if err := drainResponse(putResp); err != nil {
			return err
		}

		printSuccess("Set %s = %s", field, value)
		return nil
	},
}

var profileProductAddCmd = &cobra.Command{
	Use:   "product-add <name> <price>",
	Short: "Add a product to the business profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/profile/products", market.Product{
			Name:  args[0],
			Price: args[1],
		})
		if err != nil {
			return err
		}
		if err := drainResponse(resp); err != nil {
			return err
		}

		printSuccess("Added product %s", args[0])
		return nil
	},
}

var profileProductDeleteCmd = &cobra.Command{
	Use:   "product-delete <name>",
	Short: "Remove a product from the business profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/profile/products/"+args[0])
		if err != nil {
			return err
		}
		if err := drainResponse(resp); err != nil {
			return err
		}

		printSuccess("Removed product %s", args[0])
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileProductAddCmd)
	profileCmd.AddCommand(profileProductDeleteCmd)
}

// --- favorites ---

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Show saved businesses and items",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		bizResp, err := client.get(cmd.Context(), "/favorites/businesses")
		if err != nil {
			return err
		}
		var businesses []market.Business
		if err := decodeJSON(bizResp, &businesses); err != nil {
			return err
		}

		itemResp, err := client.get(cmd.Context(), "/favorites/items")
		if err != nil {
			return err
		}
		var items []market.CommunityItem
		if err := decodeJSON(itemResp, &items); err != nil {
			return err
		}

		if len(businesses) == 0 && len(items) == 0 {
			fmt.Println("No favorites saved.")
			return nil
		}
		if len(businesses) > 0 {
			fmt.Printf("\n%s\n", colorize(colorBold, "Businesses"))
			for _, b := range businesses {
				printBusiness(b)
			}
		}
		if len(items) > 0 {
			fmt.Printf("\n%s\n", colorize(colorBold, "Items"))
			for _, it := range items {
				printItem(it)
			}
		}
		return nil
	},
}

// --- assist ---

var assistCmd = &cobra.Command{
	Use:   "assist",
	Short: "AI helpers for negotiating, pricing and listing",
}

var assistTipCmd = &cobra.Command{
	Use:   "tip <item-name> <request>",
	Short: "Get negotiation advice for an item",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/assist/negotiation-tip", map[string]string{
			"itemName": args[0],
			"message":  strings.Join(args[1:], " "),
		})
		if err != nil {
			return err
		}

		var result struct {
			Tip string `json:"tip"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Tip)
		return nil
	},
}

var assistPriceCmd = &cobra.Command{
	Use:   "price <title>",
	Short: "Suggest a starting price in KES for an item",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/assist/price-suggestion", map[string]string{
			"title":       strings.Join(args, " "),
			"description": description,
		})
		if err != nil {
			return err
		}

		var result struct {
			Price string `json:"price"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Printf("KES %s\n", result.Price)
		return nil
	},
}

var assistDescribeCmd = &cobra.Command{
	Use:   "describe <title>",
	Short: "Draft a sales description for an item",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/assist/description", map[string]string{
			"title": strings.Join(args, " "),
		})
		if err != nil {
			return err
		}

		var result struct {
			Description string `json:"description"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Description)
		return nil
	},
}

func init() {
	assistPriceCmd.Flags().String("description", "", "item description for a better estimate")
	assistCmd.AddCommand(assistTipCmd)
	assistCmd.AddCommand(assistPriceCmd)
	assistCmd.AddCommand(assistDescribeCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
