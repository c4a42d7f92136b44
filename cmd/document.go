package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/emrgen/noteforest/internal/cache"
	"github.com/emrgen/noteforest/internal/graph"
	"github.com/emrgen/noteforest/internal/model"
	"github.com/emrgen/noteforest/internal/service"
	"github.com/emrgen/noteforest/internal/tree"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(createDocCmd())
	rootCmd.AddCommand(getDocCmd())
	rootCmd.AddCommand(listDocCmd())
	rootCmd.AddCommand(treeCmd())
	rootCmd.AddCommand(updateDocCmd())
	rootCmd.AddCommand(moveDocCmd())
	rootCmd.AddCommand(graphCmd())
	rootCmd.AddCommand(archiveDocCmd())
	rootCmd.AddCommand(restoreDocCmd())
	rootCmd.AddCommand(deleteDocCmd())
	rootCmd.AddCommand(trashCmd())
	rootCmd.AddCommand(repairOrderCmd())
}

func createDocCmd() *cobra.Command {
	var docID string
	var docTitle string
	var parentID string
	var content string
	var icon string

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a document",
		Long:    `create a document at the root, or under a parent when one is given`,
		Example: "noteforest create -t <title> -p <parent-id> -c <content>",
		Run: func(cmd *cobra.Command, args []string) {
			client := newClient()
			if client == nil {
				return
			}
			defer client.Close()

			req := &service.CreateDocumentRequest{
				ID:      docID,
				Title:   docTitle,
				Content: content,
				Icon:    icon,
			}
			if parentID != "" {
				req.ParentID = &parentID
			}

			doc, err := client.CreateDocument(context.Background(), req)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("document created with id: %s", doc.ID)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id")
	command.Flags().StringVarP(&docTitle, "title", "t", "", "title of the document")
	command.Flags().StringVarP(&parentID, "parent-id", "p", "", "parent document id")
	command.Flags().StringVarP(&content, "content", "c", "", "block json content of the document")
	command.Flags().StringVarP(&icon, "icon", "i", "", "icon of the document")

	command.Flags().SortFlags = false

	return command
}

func getDocCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "get a document",
		Example: "noteforest get -d <doc-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := newClient()
			if client == nil {
				return
			}
			defer client.Close()

			doc, err := client.GetDocument(context.Background(), docID)
			if err != nil {
				logrus.Error(err)
				return
			}

			printDocuments([]*model.Document{doc})
			printField("Title", doc.Title)
			printField("Tags", strings.Join(doc.Tags, ", "))
			printField("Content", doc.Content)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id")

	return command
}

func listDocCmd() *cobra.Command {
	var roots bool
	var parentID string

	command := &cobra.Command{
		Use:     "list",
		Short:   "list documents",
		Example: "noteforest list -r\nnoteforest list -p <parent-id>",
		Run: func(cmd *cobra.Command, args []string) {
			client := newClient()
			if client == nil {
				return
			}
			defer client.Close()

			ctx := context.Background()

			var docs []*model.Document
			var err error
			switch {
			case parentID != "":
				docs, err = client.ListChildren(ctx, parentID)
			case roots:
				docs, err = client.ListRoots(ctx)
			default:
				docs, err = client.ListDocuments(ctx)
			}
			if err != nil {
				logrus.Error(err)
				return
			}

			printDocuments(docs)
		},
	}

	command.Flags().BoolVarP(&roots, "roots", "r", false, "top level documents only")
	command.Flags().StringVarP(&parentID, "parent-id", "p", "", "children of a document")

	return command
}

func treeCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "tree",
		Short: "print the document forest",
		Run: func(cmd *cobra.Command, args []string) {
			client := newClient()
			if client == nil {
				return
			}
			defer client.Close()

			docs, err := client.ListDocuments(context.Background())
			if err != nil {
				logrus.Error(err)
				return
			}

			printForest(cache.NewSnapshot(docs))
		},
	}

	return command
}

func updateDocCmd() *cobra.Command {
	var docID string
	var docTitle string
	var content string
	var icon string
	var cover string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "update",
		Short:   "update a document",
		Example: "noteforest update -d <doc-id> -t <title> -c <content>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			req := &service.UpdateDocumentRequest{}
			if cmd.Flag("title").Changed {
				req.Title = &docTitle
			}
			if cmd.Flag("content").Changed {
				req.Content = &content
			}
			if cmd.Flag("icon").Changed {
				req.Icon = &icon
			}
			if cmd.Flag("cover").Changed {
				req.CoverImage = &cover
			}

			client := newClient()
			if client == nil {
				return
			}
			defer client.Close()

			doc, err := client.UpdateDocument(context.Background(), docID, req)
			if err != nil {
				logrus.Error(err)
				return
			}

			printDocuments([]*model.Document{doc})
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id")
	command.Flags().StringVarP(&docTitle, "title", "t", "", "title of the document")
	command.Flags().StringVarP(&content, "content", "c", "", "block json content of the document")
	command.Flags().StringVarP(&icon, "icon", "i", "", "icon of the document")
	command.Flags().StringVarP(&cover, "cover", "", "", "cover image url")

	command.Flags().SortFlags = false

	return command
}

func moveDocCmd() *cobra.Command {
	var sourceID string
	var targetID string
	var offset float64
	var side string
	var dryRun bool

	var required = []string{"source-id", "target-id"}

	command := &cobra.Command{
		Use:   "move",
		Short: "drag a document onto another one",
		Long: `move drops the source document on the target row. An offset under the
threshold nests the source as the last child of the target, otherwise the
source lands before or after the target.`,
		Example: "noteforest move -s <source-id> -d <target-id> -o 40 --side after --dry-run",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := newClient()
			if client == nil {
				return
			}
			defer client.Close()

			ctx := context.Background()

			if dryRun {
				docs, err := client.ListDocuments(ctx)
				if err != nil {
					logrus.Error(err)
					return
				}

				snapshot := cache.NewSnapshot(docs)
				gesture := tree.NewGesture(tree.DefaultThreshold)
				if err := gesture.Start(sourceID); err != nil {
					logrus.Error(err)
					return
				}
				if err := gesture.Hover(targetID, offset, tree.ParseSide(side)); err != nil {
					logrus.Error(err)
					return
				}

				intent, err := gesture.Drop(tree.NewEngine(snapshot, nil))
				if err != nil {
					color.Red("rejected: %v", err)
					return
				}

				printIntent(intent)
				printForest(intent.Apply(snapshot))
				return
			}

			res, err := client.Drop(ctx, sourceID, targetID, offset, tree.ParseSide(side))
			if err != nil {
				logrus.Error(err)
				return
			}
			if !res.Applied {
				color.Red("rejected: %s", res.Reason)
				return
			}

			printIntent(res.Intent)
		},
	}

	command.Flags().StringVarP(&sourceID, "source-id", "s", "", "dragged document id")
	command.Flags().StringVarP(&targetID, "target-id", "d", "", "hovered document id")
	command.Flags().Float64VarP(&offset, "offset", "o", tree.DefaultThreshold, "pointer offset from the leading edge of the target row")
	command.Flags().StringVarP(&side, "side", "", "before", "before or after the target")
	command.Flags().BoolVarP(&dryRun, "dry-run", "", false, "preview the move without applying it")

	command.Flags().SortFlags = false

	return command
}

func graphCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "graph",
		Short:   "show the references around a document",
		Example: "noteforest graph -d <doc-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := newClient()
			if client == nil {
				return
			}
			defer client.Close()

			view, err := client.Graph(context.Background(), docID)
			if err != nil {
				logrus.Error(err)
				return
			}
			if len(view.Nodes) == 0 {
				color.Yellow("no graph for %s", docID)
				return
			}

			printGraph(view)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "focal document id")

	return command
}

func archiveDocCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "archive",
		Short:   "move a document to the trash",
		Example: "noteforest archive -d <doc-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := newClient()
			if client == nil {
				return
			}
			defer client.Close()

			if err := client.ArchiveDocument(context.Background(), docID); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("document %s archived", docID)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id")

	return command
}

func restoreDocCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "restore",
		Short:   "take a document out of the trash",
		Example: "noteforest restore -d <doc-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := newClient()
			if client == nil {
				return
			}
			defer client.Close()

			if err := client.RestoreDocument(context.Background(), docID); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("document %s restored", docID)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id")

	return command
}

func deleteDocCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "delete",
		Short:   "delete a document and its subtree",
		Example: "noteforest delete -d <doc-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := newClient()
			if client == nil {
				return
			}
			defer client.Close()

			deleted, err := client.DeleteDocument(context.Background(), docID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"#", "Deleted"})
			for i, id := range deleted {
				table.Append([]string{strconv.Itoa(i + 1), id})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id")

	return command
}

func trashCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "trash",
		Short: "list archived documents",
		Run: func(cmd *cobra.Command, args []string) {
			client := newClient()
			if client == nil {
				return
			}
			defer client.Close()

			docs, err := client.ListTrash(context.Background())
			if err != nil {
				logrus.Error(err)
				return
			}

			printDocuments(docs)
		},
	}

	return command
}

func repairOrderCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "repair-order",
		Short: "renumber siblings sharing the same order",
		Run: func(cmd *cobra.Command, args []string) {
			client := newClient()
			if client == nil {
				return
			}
			defer client.Close()

			updated, err := client.RepairOrder(context.Background())
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("%d documents renumbered", updated)
		},
	}

	return command
}

func printDocuments(docs []*model.Document) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Title", "Parent", "Order", "Archived"})
	for _, doc := range docs {
		parent := ""
		if doc.ParentID != nil {
			parent = *doc.ParentID
		}
		table.Append([]string{
			doc.ID,
			graph.Label(doc),
			parent,
			strconv.FormatFloat(doc.Order, 'g', -1, 64),
			strconv.FormatBool(doc.IsArchived),
		})
	}

	table.Render()
}

func printForest(snapshot *cache.Snapshot) {
	var walk func(parentID *string, depth int)
	walk = func(parentID *string, depth int) {
		for _, doc := range snapshot.ChildrenOf(parentID) {
			fmt.Print(strings.Repeat("  ", depth))
			color.Set(color.FgCyan)
			fmt.Print(graph.Label(doc))
			color.Unset()
			fmt.Printf(" (%s)\n", doc.ID)

			id := doc.ID
			walk(&id, depth+1)
		}
	}

	walk(nil, 0)
}

func printIntent(intent *tree.Intent) {
	parent := "<root>"
	if intent.ParentID != nil {
		parent = *intent.ParentID
	}

	printField("Zone", intent.Zone.String())
	printField("Document", intent.DocumentID)
	printField("Parent", parent)
	printField("Order", strconv.FormatFloat(intent.Order, 'g', -1, 64))

	if len(intent.Renumber) == 0 {
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Renumbered", "Order"})
	for _, p := range intent.Renumber {
		table.Append([]string{p.DocumentID, strconv.FormatFloat(p.Order, 'g', -1, 64)})
	}
	table.Render()
}

func printGraph(view *graph.View) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Label", "Focal"})
	for _, node := range view.Nodes {
		table.Append([]string{node.ID, node.Label, strconv.FormatBool(node.Focal)})
	}
	table.Render()

	edges := tablewriter.NewWriter(os.Stdout)
	edges.SetHeader([]string{"Source", "Target"})
	for _, edge := range view.Edges {
		edges.Append([]string{edge.Source, edge.Target})
	}
	edges.Render()
}

func printField(label, value string) {
	color.Set(color.FgCyan)
	fmt.Print(label)
	color.Unset()
	fmt.Printf(": %s\n", value)
}

// checkMissingFlags checks if the required flags are set and returns true if any is missing
func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if !cmd.Flag(required).Changed {
			missingFlags = append(missingFlags, required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) == 0 {
		return false
	}

	var msg string
	for _, f := range missingFlags {
		msg += fmt.Sprintf("--%s ", f)
	}

	color.Red("missing: %s\n", msg)
	if len(providedFlags) > 0 {
		color.Green("provide: %s\n", strings.Join(providedFlags, " "))
	}
	cmd.Println("")

	return true
}
