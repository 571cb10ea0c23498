package mcpserver

// QueryGuide describes how the list tools filter and order records.
const QueryGuide = `# vfxhub Query Guide

Every list tool applies its filters together (AND) in a fixed order:
search, category, project, status bucket. Sorting always comes last.

## Search

` + "`query`" + ` is matched case-insensitively as a substring.

| Collection | Fields searched |
|---|---|
| projects | title, client, description |
| assets | fileName, tags |
| milestones | title, description |

A blank query returns everything.

## Categories

- Projects filter by ` + "`status`" + `: pre-production, in-progress, review, complete.
- Assets filter by ` + "`type`" + `, derived from the stored MIME type:
  - image: contains "image"
  - video: contains "video"
  - model: contains model, fbx, obj, blend or max
  - other: contains none of image, video, model
  - any other value matches every asset

## Project filter

` + "`project_id`" + ` must be a whole number. "all" or an empty value turns the
filter off. Any other non-numeric value matches nothing. Assets may have no
project; they never match a project filter.

## Milestone buckets

- completed: marked complete
- pending: not complete (includes overdue and today)
- overdue: not complete and due before today
- today: due today, complete or not

## Ordering

Milestones are always ordered by due date, earliest first. Projects are
ordered by due date only when ` + "`sort_by_due`" + ` is true. Records whose due
date cannot be parsed come last in their original order.

## References

A project reference that does not resolve shows as "Unknown Project".
`
