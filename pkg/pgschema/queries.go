package pgschema

const (
	querySelectTables = `
SELECT c.OID,s.table_schema::text,s.table_name::text,s.table_type::text
FROM   information_schema.Tables s
JOIN   pg_class c ON s.table_name=c.relname
                 AND c.relnamespace=s.table_schema::text::regnamespace
WHERE  s.table_schema::text = $1
ORDER BY s.table_schema, s.table_name;
`
	querySelectCols = `
SELECT attname,attnum,format_type(atttypid, atttypmod)
FROM   pg_attribute
WHERE  attrelid = $1
AND    attnum > 0
AND    NOT attisdropped
ORDER BY attnum;
`
	querySelectPrimaryKeys = `
SELECT a.attnum,a.attname
FROM   pg_index i
JOIN   pg_attribute a ON a.attrelid = i.indrelid
                     AND a.attnum   = ANY(i.indkey)
WHERE  i.indrelid = $1
AND    i.indisprimary
ORDER BY array_position(i.indkey::int2[], a.attnum);
`
	querySelectForeignKeys = `
SELECT   string_agg(kcu.column_name::text, ',' ORDER BY kcu.ordinal_position) AS fk_columns,
		 string_agg(a.attnum::text, ',' ORDER BY kcu.ordinal_position) AS fk_column_nums,
         kcu.constraint_name::text AS constraint_name,
         kcu.table_name::text AS foreign_table,
         rel_tco.table_name::text AS primary_table
FROM     information_schema.table_constraints tco
JOIN     information_schema.key_column_usage kcu
            ON tco.constraint_schema = kcu.constraint_schema
           AND tco.constraint_name   = kcu.constraint_name
JOIN     information_schema.referential_constraints rco
            ON tco.constraint_schema = rco.constraint_schema
           AND tco.constraint_name   = rco.constraint_name
JOIN     information_schema.table_constraints rel_tco
            ON rco.unique_constraint_schema = rel_tco.constraint_schema
           AND rco.unique_constraint_name   = rel_tco.constraint_name
JOIN     pg_class c
           ON c.relname = kcu.table_name
          AND c.relnamespace = kcu.table_schema::text::regnamespace
JOIN     pg_attribute a
           ON a.attrelid = c.OID
           AND a.attname = kcu.column_name
WHERE    tco.constraint_type = 'FOREIGN KEY'
AND      kcu.table_schema::text = $1
GROUP BY kcu.table_schema,
         kcu.table_name,
         rel_tco.table_name,
         rel_tco.table_schema,
         kcu.constraint_name
ORDER BY kcu.table_schema,
         kcu.table_name;
`
)
