package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "tag commands",
}

func init() {
	rootCmd.AddCommand(tagCmd)
	tagCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	tagCmd.AddCommand(createTagCmd())
	tagCmd.AddCommand(listTagsCmd())
	tagCmd.AddCommand(deleteTagCmd())
	tagCmd.AddCommand(setTagsCmd())
}

func createTagCmd() *cobra.Command {
	var name string
	var tagColor string

	var required = []string{"name"}

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a tag",
		Example: "noteforest tag create -n <name> -c #ff0000",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := newClient()
			if client == nil {
				return
			}
			defer client.Close()

			tag, err := client.CreateTag(context.Background(), name, tagColor)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("tag created with id: %s", tag.ID)
		},
	}

	command.Flags().StringVarP(&name, "name", "n", "", "tag name")
	command.Flags().StringVarP(&tagColor, "color", "c", "", "tag color")

	return command
}

func listTagsCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "list tags",
		Run: func(cmd *cobra.Command, args []string) {
			client := newClient()
			if client == nil {
				return
			}
			defer client.Close()

			tags, err := client.ListTags(context.Background())
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Name", "Color"})
			for _, tag := range tags {
				table.Append([]string{tag.ID, tag.Name, tag.Color})
			}
			table.Render()
		},
	}

	return command
}

func deleteTagCmd() *cobra.Command {
	var tagID string

	var required = []string{"tag-id"}

	command := &cobra.Command{
		Use:     "delete",
		Short:   "delete a tag and remove it from every document",
		Example: "noteforest tag delete -i <tag-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := newClient()
			if client == nil {
				return
			}
			defer client.Close()

			if err := client.DeleteTag(context.Background(), tagID); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("tag %s deleted", tagID)
		},
	}

	command.Flags().StringVarP(&tagID, "tag-id", "i", "", "tag id")

	return command
}

func setTagsCmd() *cobra.Command {
	var docID string
	var tagIDs string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "set",
		Short:   "replace the tags of a document",
		Example: "noteforest tag set -d <doc-id> -i <tag-id>,<tag-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			ids := []string{}
			for _, id := range strings.Split(tagIDs, ",") {
				if id = strings.TrimSpace(id); id != "" {
					ids = append(ids, id)
				}
			}

			client := newClient()
			if client == nil {
				return
			}
			defer client.Close()

			doc, err := client.SetDocumentTags(context.Background(), docID, ids)
			if err != nil {
				logrus.Error(err)
				return
			}

			color.Green("%s tagged: %s", doc.ID, strings.Join(doc.Tags, ", "))
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id")
	command.Flags().StringVarP(&tagIDs, "tag-ids", "i", "", "comma separated tag ids, empty clears the tags")

	return command
}
