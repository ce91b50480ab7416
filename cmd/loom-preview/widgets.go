package main

import (
	"github.com/diamondburned/gotk4/pkg/gtk/v3"
)

// buildPreview assembles the mock window contents: a menu bar, a toolbar,
// and a notebook with a controls page and a list page.
func buildPreview() *gtk.Box {
	root := gtk.NewBox(gtk.OrientationVertical, 8)
	root.SetBorderWidth(10)

	root.PackStart(buildMenuBar(), false, false, 0)
	root.PackStart(buildToolbar(), false, false, 0)

	notebook := gtk.NewNotebook()
	notebook.AppendPage(buildControlsPage(), gtk.NewLabel("Controls"))
	notebook.AppendPage(buildListPage(), gtk.NewLabel("List"))
	root.PackStart(notebook, true, true, 0)

	return root
}

func buildMenuBar() gtk.Widgetter {
	bar := gtk.NewMenuBar()
	for _, label := range []string{"File", "Edit", "View", "Help"} {
		bar.Append(gtk.NewMenuItemWithLabel(label))
	}
	return bar
}

func buildToolbar() gtk.Widgetter {
	bar := gtk.NewToolbar()
	bar.SetStyle(gtk.ToolbarIcons)
	for i, icon := range []string{"go-previous-symbolic", "go-next-symbolic", "view-refresh-symbolic"} {
		btn := gtk.NewToolButton(nil, "")
		btn.SetIconName(icon)
		bar.Insert(&btn.ToolItem, i)
	}

	entry := gtk.NewEntry()
	entry.SetText("Search demo content")
	item := gtk.NewToolItem()
	item.SetExpand(true)
	item.Add(entry)
	bar.Insert(item, -1)
	return bar
}

func buildControlsPage() gtk.Widgetter {
	page := gtk.NewBox(gtk.OrientationVertical, 10)
	page.SetBorderWidth(10)

	top := gtk.NewBox(gtk.OrientationHorizontal, 12)
	check := gtk.NewCheckButtonWithLabel("Enable shadows")
	check.SetActive(true)
	top.PackStart(check, false, false, 0)
	top.PackStart(gtk.NewRadioButtonWithLabel(nil, "Compact mode"), false, false, 0)
	page.PackStart(top, false, false, 0)

	row := gtk.NewBox(gtk.OrientationHorizontal, 10)
	input := gtk.NewEntry()
	input.SetText("Primary input")
	row.PackStart(input, true, true, 0)
	combo := gtk.NewComboBoxText()
	combo.AppendText("Default")
	combo.AppendText("Alternate")
	combo.SetActive(0)
	row.PackStart(combo, false, false, 0)
	page.PackStart(row, false, false, 0)

	progress := gtk.NewProgressBar()
	progress.SetFraction(0.63)
	progress.SetText("Sync progress")
	progress.SetShowText(true)
	page.PackStart(progress, false, false, 0)

	scale := gtk.NewScaleWithRange(gtk.OrientationHorizontal, 0, 100, 1)
	scale.SetValue(42)
	page.PackStart(scale, false, false, 0)

	actions := gtk.NewBox(gtk.OrientationHorizontal, 8)
	actions.SetHAlign(gtk.AlignEnd)
	actions.PackStart(gtk.NewButtonWithLabel("Cancel"), false, false, 0)
	apply := gtk.NewButtonWithLabel("Apply")
	apply.StyleContext().AddClass("suggested-action")
	actions.PackStart(apply, false, false, 0)
	page.PackStart(actions, false, false, 0)

	return page
}

var listRows = [][2]string{
	{"Window border", "Enabled"},
	{"Button radius", "6px"},
	{"Selection style", "Accent fill"},
	{"Scrollbar width", "Auto"},
}

func buildListPage() gtk.Widgetter {
	page := gtk.NewBox(gtk.OrientationVertical, 8)
	page.SetBorderWidth(10)

	header := gtk.NewBox(gtk.OrientationHorizontal, 0)
	header.PackStart(columnLabel("Setting"), true, true, 0)
	header.PackStart(columnLabel("Value"), true, true, 0)
	page.PackStart(header, false, false, 0)

	list := gtk.NewListBox()
	list.SetSelectionMode(gtk.SelectionSingle)
	for _, r := range listRows {
		line := gtk.NewBox(gtk.OrientationHorizontal, 0)
		line.PackStart(columnLabel(r[0]), true, true, 0)
		line.PackStart(columnLabel(r[1]), true, true, 0)
		list.Add(line)
	}
	list.SelectRow(list.RowAtIndex(1))

	scroller := gtk.NewScrolledWindow(nil, nil)
	scroller.SetPolicy(gtk.PolicyNever, gtk.PolicyAutomatic)
	scroller.SetMinContentHeight(150)
	scroller.Add(list)
	page.PackStart(scroller, true, true, 0)

	return page
}

func columnLabel(text string) *gtk.Label {
	l := gtk.NewLabel(text)
	l.SetXAlign(0)
	l.SetMarginStart(4)
	l.SetMarginEnd(4)
	l.SetMarginTop(4)
	l.SetMarginBottom(4)
	return l
}
